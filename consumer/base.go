package consumer

import (
	"cryptics.app/cryptics-client/summarytopic"
)

// Consumer tails the summary topic and pushes each merged update somewhere a
// dashboard or tool can read it.
type Consumer interface {
	StartSummaryListener(*summarytopic.SummaryTopic)
	CloseSummaryListener() error
}
