package summarytopic

import (
	"github.com/textileio/go-threads/broadcast"

	"cryptics.app/cryptics-client/model"
)

// SummaryTopic fans merged summary updates out to any number of consumers.
// The subscription manager is the only sender; file/redis/questdb/mqtt
// consumers and the statistics generator each hold a Listener.
type SummaryTopic struct {
	Broadcaster *broadcast.Broadcaster

	transformations []Transformation
}

func NewSummaryTopic(capacity int, transformations ...Transformation) *SummaryTopic {
	summaryBroadcaster := broadcast.NewBroadcaster(capacity)

	return &SummaryTopic{
		Broadcaster:     summaryBroadcaster,
		transformations: transformations,
	}
}

func (t *SummaryTopic) Send(summary *model.Summary) {
	summary = t.applyTransformations(summary)
	if summary == nil {
		return
	}

	t.Broadcaster.Send(summary)
}

func (t *SummaryTopic) Listen() *broadcast.Listener {
	return t.Broadcaster.Listen()
}

func (t *SummaryTopic) applyTransformations(summary *model.Summary) *model.Summary {
	for _, v := range t.transformations {
		if err := v.Transform(summary); err != nil {
			return nil
		}
	}
	return summary
}
