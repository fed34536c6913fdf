package consumer

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	questdb "github.com/questdb/go-questdb-client/v3"
	"github.com/textileio/go-threads/broadcast"

	"cryptics.app/cryptics-client/model"
	"cryptics.app/cryptics-client/summarytopic"
)

type QuestDbConsumerOptions struct {
	Enabled             bool          `mapstructure:"enabled"`
	FlushInterval       time.Duration `mapstructure:"flush_interval"`
	IndividualFeedTable bool          `mapstructure:"individual_feed_table"`
	ClientOptions       struct {
		Schema    string `mapstructure:"schema"`
		Address   string `mapstructure:"address"`
		Username  string `mapstructure:"username"`
		Password  string `mapstructure:"password"`
		TlsVerify bool   `mapstructure:"tls_verify"`
	} `mapstructure:"client_options"`
}

type QuestDbConsumer struct {
	questdbSender       questdb.LineSender
	SummaryListener     *broadcast.Listener
	individualFeedTable bool
	flushInterval       time.Duration
	flushIntervalTicker *time.Ticker
	txContext           context.Context
}

func (q *QuestDbConsumer) setup() error {
	go func() {
		log.Info("Setting up QuestDB ILP sender", "consumer", "questdb")
		q.flushIntervalTicker = time.NewTicker(q.flushInterval)
		defer q.flushIntervalTicker.Stop()

		for range q.flushIntervalTicker.C {
			q.flushILPBuffer()
		}
	}()

	return nil
}

func (q *QuestDbConsumer) flushILPBuffer() error {
	log.Debug("Flushing ILP buffer", "consumer", "questdb")

	if err := q.questdbSender.Flush(q.txContext); err != nil {
		log.Error("Error flushing ILP buffer", "consumer", "questdb", "error", err)
	}
	return nil
}

func (q *QuestDbConsumer) processSummary(summary *model.Summary) {
	if summary.LastPrice == nil {
		return
	}

	tableName := "summaries"
	if q.individualFeedTable {
		tableName = fmt.Sprintf("%s_summaries", summary.Symbol)
	}

	row := q.questdbSender.Table(tableName).
		Symbol("symbol", summary.Symbol).
		Float64Column("last_price", *summary.LastPrice)
	if summary.Volume != nil {
		row = row.Float64Column("volume", *summary.Volume)
	}
	if summary.HighPrice != nil {
		row = row.Float64Column("high_price", *summary.HighPrice)
	}
	if summary.LowPrice != nil {
		row = row.Float64Column("low_price", *summary.LowPrice)
	}
	if err := row.At(q.txContext, summary.Timestamp()); err != nil {
		log.Error("Error processing summary for ILP", "consumer", "questdb", "error", err)
	}
}

func (q *QuestDbConsumer) StartSummaryListener(topic *summarytopic.SummaryTopic) {
	log.Debug("QuestDB ILP summary listener starting", "consumer", "questdb")
	q.SummaryListener = topic.Listen()
	go func() {
		for summary := range q.SummaryListener.Channel() {
			q.processSummary(summary.(*model.Summary))
		}
	}()
}

func (q *QuestDbConsumer) CloseSummaryListener() error {
	q.SummaryListener.Discard()
	q.flushILPBuffer()
	return q.questdbSender.Close(q.txContext)
}

func NewQuestDbConsumer(options QuestDbConsumerOptions) *QuestDbConsumer {
	ctx := context.Background()

	opts := []questdb.LineSenderOption{
		questdb.WithAddress(options.ClientOptions.Address),
	}
	if options.ClientOptions.Schema == "http" {
		opts = append(opts, questdb.WithHttp())
	} else {
		opts = append(opts, questdb.WithTcp())
	}
	if options.ClientOptions.Username != "" {
		opts = append(opts, questdb.WithBasicAuth(options.ClientOptions.Username, options.ClientOptions.Password))
	}
	if !options.ClientOptions.TlsVerify {
		opts = append(opts, questdb.WithTlsInsecureSkipVerify())
	}

	sender, err := questdb.NewLineSender(ctx, opts...)
	if err != nil {
		panic(err)
	}

	newConsumer := &QuestDbConsumer{
		questdbSender:       sender,
		individualFeedTable: options.IndividualFeedTable,
		flushInterval:       options.FlushInterval,
		txContext:           ctx,
	}
	newConsumer.setup()

	return newConsumer
}
