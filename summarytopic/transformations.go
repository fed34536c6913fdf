package summarytopic

import (
	"time"

	"cryptics.app/cryptics-client/model"
)

type Transformation interface {
	Transform(*model.Summary) error
}

// NormalizeSymbolTransformation forces every published summary onto the
// canonical uppercase symbol form, whatever shape the backend pushed.
type NormalizeSymbolTransformation struct{}

func (t *NormalizeSymbolTransformation) Transform(summary *model.Summary) error {
	summary.Symbol = model.NormalizeSymbol(summary.Symbol)
	return nil
}

// StampTimestampTransformation fills in a receive timestamp on updates the
// backend pushed without one.
type StampTimestampTransformation struct{}

func (t *StampTimestampTransformation) Transform(summary *model.Summary) error {
	if summary.Ts == nil {
		ts := time.Now().UTC().UnixMilli()
		summary.Ts = &ts
	}
	return nil
}
