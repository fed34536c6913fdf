package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	slog "log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"

	"cryptics.app/cryptics-client/api"
	"cryptics.app/cryptics-client/auth"
	"cryptics.app/cryptics-client/config"
	"cryptics.app/cryptics-client/consumer"
	"cryptics.app/cryptics-client/flags"
	"cryptics.app/cryptics-client/logging"
	"cryptics.app/cryptics-client/rpcmanager"
	"cryptics.app/cryptics-client/subscription"
	"cryptics.app/cryptics-client/summarytopic"
	"cryptics.app/cryptics-client/symbols"
)

func init() {
	// Parse command-line flags
	flag.Parse()
}

func main() {
	config, err := config.LoadConfig(*flags.ConfigFile)
	if err != nil {
		log.Fatalf("%s\n", err)
	}
	if *flags.StateDir != "" {
		config.Auth.StateDir = *flags.StateDir
	}

	logging.SetupLogging(config)

	fmt.Println("=========  Cryptics Dashboard Agent  =========")

	run(config)

	slog.Warn("Goodbye!")
}

func run(globalConfig config.ConfigOptions) {
	summaryTopic := summarytopic.NewSummaryTopic(globalConfig.MessageBufferSize,
		&summarytopic.NormalizeSymbolTransformation{},
		&summarytopic.StampTimestampTransformation{})
	consumers := initConsumers(summaryTopic, globalConfig)
	defer func() {
		if err := closeConsumers(consumers); err != nil {
			slog.Error("error closing consumers", "error", err)
		}
	}()

	store, err := auth.NewFileStore(globalConfig.Auth.StateDir)
	if err != nil {
		log.Fatalf("cannot use auth state dir %q: %s\n", globalConfig.Auth.StateDir, err)
	}

	session := auth.NewSession(auth.SessionOptions{
		BaseURL: globalConfig.API.BaseURL,
		Store:   store,
		Auth:    globalConfig.Auth,
	})
	defer session.Close()

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := session.Initialize(initCtx); err != nil {
		slog.Warn("session init failed, continuing anonymously", "error", err)
	}
	cancelInit()
	slog.Info("session initialized", "state", session.State())

	apiClient := api.NewClient(globalConfig.API, session)
	if err := apiClient.Ping(context.Background()); err != nil {
		slog.Warn("backend not reachable yet", "error", err)
	}

	subscriptions := subscription.NewManager(apiClient, summaryTopic, globalConfig.Feed)
	subscriptions.Start()

	pinWatchedSymbols(subscriptions, apiClient, session, globalConfig)
	go watchSessionEvents(session)

	shutdown := make(chan struct{})

	if globalConfig.RPC.Enabled {
		rpcManager := &rpcmanager.RPCManager{
			GlobalConfig:  globalConfig,
			Subscriptions: subscriptions,
			Session:       session,
			ShutdownCh:    shutdown,
		}
		if err := rpcManager.Start(globalConfig.RPC); err != nil {
			log.Fatalf("cannot start RPC control: %s\n", err)
		}
		defer rpcManager.Stop()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-signals:
		slog.Info("signal received, shutting down", "signal", sig.String())
		subscriptions.Close()
	case <-shutdown:
		slog.Info("shutdown requested over RPC")
	}
}

// pinWatchedSymbols seeds the feed with the configured asset pairs plus, for
// an authenticated user, the symbols on their server-side watchlist.
func pinWatchedSymbols(subscriptions *subscription.Manager, apiClient *api.Client, session *auth.Session, globalConfig config.ConfigOptions) {
	pairs := symbols.WatchPairs(globalConfig.Assets)

	if session.State() == auth.StateAuthenticated {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		items, err := apiClient.Watchlist(ctx)
		if err != nil {
			slog.Warn("could not load watchlist", "error", err)
		}
		for _, item := range items {
			pairs = append(pairs, item.Symbol)
		}
	}

	if len(pairs) < 1 {
		if globalConfig.Env != "development" {
			panic("we aren't watching any symbols!")
		}
		slog.Warn("No symbols configured, no data will be obtained!")
		return
	}

	slog.Debug(fmt.Sprintf("list of watched symbols: %+v", pairs))
	for _, pair := range pairs {
		subscriptions.AddExtraSymbol(pair)
	}
}

func watchSessionEvents(session *auth.Session) {
	listener := session.Events()
	defer listener.Discard()

	for ev := range listener.Channel() {
		event, ok := ev.(auth.Event)
		if !ok {
			continue
		}
		switch event.Type {
		case auth.EventTokens:
			slog.Info("session tokens rotated")
		case auth.EventLogout:
			slog.Warn("session ended, feed continues unauthenticated")
		}
	}
}

func initConsumers(summaryTopic *summarytopic.SummaryTopic, config config.ConfigOptions) []consumer.Consumer {
	if !config.FileConsumerOptions.Enabled &&
		!config.RedisOptions.Enabled &&
		!config.MQTTConsumerOptions.Enabled &&
		!config.QuestDBConsumerOptions.Enabled {
		slog.Warn("No consumers enabled, updates stay in the in-memory cache only")
	}

	consumers := []consumer.Consumer{}
	enable := func(c consumer.Consumer) {
		c.StartSummaryListener(summaryTopic)
		consumers = append(consumers, c)
	}

	if config.RedisOptions.Enabled {
		enable(consumer.NewRedisConsumer(config.RedisOptions))
	}

	if config.FileConsumerOptions.Enabled {
		enable(consumer.NewFileConsumer(config.FileConsumerOptions.OutputFilename))
	}

	if config.MQTTConsumerOptions.Enabled {
		enable(consumer.NewMqttConsumer(config.MQTTConsumerOptions))
	}

	if config.QuestDBConsumerOptions.Enabled {
		enable(consumer.NewQuestDbConsumer(config.QuestDBConsumerOptions))
	}

	// enable statistics generator
	if config.Stats.Enabled {
		enable(consumer.NewStatisticsGenerator(config.Stats))
	}

	return consumers
}

func closeConsumers(consumers []consumer.Consumer) error {
	var result *multierror.Error
	for _, c := range consumers {
		if err := c.CloseSummaryListener(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
