package summarytopic

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptics.app/cryptics-client/model"
)

type rejectAll struct{}

func (t *rejectAll) Transform(*model.Summary) error { return errors.New("rejected") }

func TestSendReachesEveryListener(t *testing.T) {
	topic := NewSummaryTopic(4, &NormalizeSymbolTransformation{}, &StampTimestampTransformation{})

	first := topic.Listen()
	defer first.Discard()
	second := topic.Listen()
	defer second.Discard()

	price := 50000.0
	topic.Send(&model.Summary{Symbol: "btc/usdt", LastPrice: &price})

	for _, listener := range []interface{ Channel() <-chan interface{} }{first, second} {
		select {
		case v := <-listener.Channel():
			s := v.(*model.Summary)
			assert.Equal(t, "BTCUSDT", s.Symbol, "symbol must be normalized before fan-out")
			require.NotNil(t, s.Ts, "missing timestamps must be stamped")
		case <-time.After(time.Second):
			t.Fatal("listener never received the summary")
		}
	}
}

func TestFailingTransformationDropsSummary(t *testing.T) {
	topic := NewSummaryTopic(4, &rejectAll{})

	listener := topic.Listen()
	defer listener.Discard()

	topic.Send(&model.Summary{Symbol: "BTCUSDT"})

	select {
	case <-listener.Channel():
		t.Fatal("rejected summary must not be published")
	case <-time.After(50 * time.Millisecond):
	}
}
