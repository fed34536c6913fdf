package consumer

import (
	"fmt"
	log "log/slog"
	"sync/atomic"
	"time"

	"github.com/textileio/go-threads/broadcast"

	"cryptics.app/cryptics-client/model"
	"cryptics.app/cryptics-client/summarytopic"
)

type StatisticsGeneratorOptions struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type StatisticsGenerator struct {
	SummaryListener *broadcast.Listener

	summaryCounter atomic.Uint64

	statsInterval time.Duration
}

func (s *StatisticsGenerator) StartSummaryListener(topic *summarytopic.SummaryTopic) {
	s.SummaryListener = topic.Listen()
	go func() {
		log.Debug("Summary statistics generator listening now", "consumer", "statistics")
		for summary := range s.SummaryListener.Channel() {
			_ = summary.(*model.Summary)
			s.summaryCounter.Add(1)
		}
	}()
}

func (s *StatisticsGenerator) CloseSummaryListener() error {
	s.SummaryListener.Discard()
	return nil
}

func (s *StatisticsGenerator) logUpdateRate() {
	go func() {
		timeTicker := time.NewTicker(s.statsInterval)

		defer timeTicker.Stop()

		for range timeTicker.C {
			if s.SummaryListener != nil {
				total := s.summaryCounter.Swap(0)
				perSecond := float64(total) / s.statsInterval.Seconds()
				log.Info(fmt.Sprintf("Received %d summary updates in the last %.1f seconds %.1f updates/s", total, s.statsInterval.Seconds(), perSecond))
			}
		}
	}()
}

func NewStatisticsGenerator(options StatisticsGeneratorOptions) *StatisticsGenerator {
	newConsumer := &StatisticsGenerator{
		statsInterval: options.Interval,
	}
	newConsumer.logUpdateRate()
	return newConsumer
}
