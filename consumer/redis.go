package consumer

import (
	"context"
	"fmt"
	log "log/slog"
	"strconv"
	"time"

	"github.com/redis/rueidis"
	"github.com/textileio/go-threads/broadcast"

	"cryptics.app/cryptics-client/model"
	"cryptics.app/cryptics-client/summarytopic"
)

type RedisOptions struct {
	Enabled       bool
	ClientOptions rueidis.ClientOption `mapstructure:"client_options"`
	TsOptions     struct {
		Retention time.Duration
		ChunkSize int64
	} `mapstructure:"ts"`
}

// RedisConsumer mirrors the live summary feed into redis time series, one
// series per symbol, so dashboards sharing the redis instance can chart
// prices without their own backend connection.
type RedisConsumer struct {
	SummaryListener *broadcast.Listener

	redisClient rueidis.Client

	tsRetention time.Duration
	tsChunkSize int64
}

func (s *RedisConsumer) setup() error {
	log.Info("Updating retention rules", "consumer", "redis")
	cmd := s.redisClient.B().Keys().Pattern("ts:*").Build()
	tsKeys, err := s.redisClient.Do(context.Background(), cmd).AsStrSlice()
	if err != nil {
		log.Error("Error listing summary time series keys", "consumer", "redis")
		return err
	}

	for _, key := range tsKeys {
		cmd := s.redisClient.B().TsAlter().Key(key).Retention(s.tsRetention.Milliseconds()).ChunkSize(s.tsChunkSize).Build()
		s.redisClient.Do(context.Background(), cmd)
	}

	return nil
}

func (s *RedisConsumer) processSummary(summary *model.Summary) {
	if summary.LastPrice == nil {
		return
	}
	key := fmt.Sprintf("ts:%s", summary.Symbol)
	cmd := s.redisClient.B().TsAdd().Key(key).Timestamp(strconv.FormatInt(summary.Timestamp().UTC().UnixMilli(), 10)).
		Value(*summary.LastPrice).Retention(s.tsRetention.Milliseconds()).EncodingCompressed().OnDuplicateLast().Labels().
		Labels("type", "summary").Labels("symbol", summary.Symbol).Build()
	err := s.redisClient.Do(context.Background(), cmd).Error()
	if err != nil {
		log.Error("Error executing ts.ADD", "consumer", "redis", "error", err)
	}
}

func (s *RedisConsumer) StartSummaryListener(topic *summarytopic.SummaryTopic) {
	log.Debug("Redis summary listener starting", "consumer", "redis")
	s.SummaryListener = topic.Listen()
	go func() {
		for summary := range s.SummaryListener.Channel() {
			s.processSummary(summary.(*model.Summary))
		}
	}()
}

func (s *RedisConsumer) CloseSummaryListener() error {
	s.SummaryListener.Discard()
	s.redisClient.Close()
	return nil
}

func NewRedisConsumer(options RedisOptions) *RedisConsumer {
	r, err := rueidis.NewClient(options.ClientOptions)
	if err != nil {
		panic(err)
	}

	newConsumer := &RedisConsumer{
		redisClient: r,
		tsRetention: options.TsOptions.Retention,
		tsChunkSize: options.TsOptions.ChunkSize,
	}
	newConsumer.setup()

	return newConsumer
}
