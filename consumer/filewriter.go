package consumer

import (
	"fmt"
	log "log/slog"
	"os"
	"time"

	"github.com/textileio/go-threads/broadcast"

	"cryptics.app/cryptics-client/constants"
	"cryptics.app/cryptics-client/model"
	"cryptics.app/cryptics-client/summarytopic"
)

type FileConsumerOptions struct {
	Enabled        bool
	OutputFilename string `mapstructure:"filename"`
}

type FileConsumer struct {
	SummaryListener *broadcast.Listener

	W *os.File
}

func (s *FileConsumer) processSummary(summary *model.Summary) {
	lastPrice := "null"
	if summary.LastPrice != nil {
		lastPrice = fmt.Sprintf("%f", *summary.LastPrice)
	}
	volume := "null"
	if summary.Volume != nil {
		volume = fmt.Sprintf("%f", *summary.Volume)
	}

	s.W.Write([]byte(fmt.Sprintf(
		"%s symbol=%s last_price=%s volume=%s ts=%d\n",
		time.Now().Format(constants.TS_FORMAT), summary.Symbol, lastPrice, volume, summary.Timestamp().UnixMilli())))
}

// Listen for summaries on the topic and append them to the output file.
func (s *FileConsumer) StartSummaryListener(topic *summarytopic.SummaryTopic) {
	s.SummaryListener = topic.Listen()
	go func() {
		log.Info("File consumer listening now for summaries")
		for summary := range s.SummaryListener.Channel() {
			s.processSummary(summary.(*model.Summary))
		}

		s.W.Close()
	}()

}

// CloseSummaryListener stops the listener; the pump goroutine closes the
// file once the channel drains.
func (s *FileConsumer) CloseSummaryListener() error {
	s.SummaryListener.Discard()
	return nil
}

func NewFileConsumer(filename string) *FileConsumer {
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0755)
	if err != nil {
		panic(err)
	}

	newConsumer := &FileConsumer{
		W: file,
	}
	return newConsumer
}
