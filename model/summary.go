package model

import "time"

// Summary is the latest known price snapshot for one symbol. The backend
// pushes partial summaries (a websocket ticker update carries less than the
// batched REST shape), so every value field is a pointer: nil means "the
// update didn't mention it", Merge keeps the previous value in that case.
type Summary struct {
	Symbol             string   `json:"symbol" mapstructure:"symbol"`
	LastPrice          *float64 `json:"last_price" mapstructure:"last_price"`
	PriceChange        *float64 `json:"price_change,omitempty" mapstructure:"price_change"`
	PriceChangePercent *string  `json:"price_change_percent,omitempty" mapstructure:"price_change_percent"`
	ChangePct24h       *string  `json:"change_pct_24h,omitempty" mapstructure:"change_pct_24h"`
	HighPrice          *float64 `json:"high_price,omitempty" mapstructure:"high_price"`
	LowPrice           *float64 `json:"low_price,omitempty" mapstructure:"low_price"`
	OpenPrice          *float64 `json:"open_price,omitempty" mapstructure:"open_price"`
	Volume             *float64 `json:"volume,omitempty" mapstructure:"volume"`
	BidPrice           *float64 `json:"bid_price,omitempty" mapstructure:"bid_price"`
	AskPrice           *float64 `json:"ask_price,omitempty" mapstructure:"ask_price"`
	Klines             []Kline  `json:"klines,omitempty" mapstructure:"klines"`
	Ts                 *int64   `json:"ts,omitempty" mapstructure:"ts"`
}

// Merge applies a newer partial update on top of s. Later fields win, fields
// absent from the update persist. The symbol itself never changes.
func (s *Summary) Merge(update *Summary) {
	if update == nil {
		return
	}
	if update.LastPrice != nil {
		s.LastPrice = update.LastPrice
	}
	if update.PriceChange != nil {
		s.PriceChange = update.PriceChange
	}
	if update.PriceChangePercent != nil {
		s.PriceChangePercent = update.PriceChangePercent
	}
	if update.ChangePct24h != nil {
		s.ChangePct24h = update.ChangePct24h
	}
	if update.HighPrice != nil {
		s.HighPrice = update.HighPrice
	}
	if update.LowPrice != nil {
		s.LowPrice = update.LowPrice
	}
	if update.OpenPrice != nil {
		s.OpenPrice = update.OpenPrice
	}
	if update.Volume != nil {
		s.Volume = update.Volume
	}
	if update.BidPrice != nil {
		s.BidPrice = update.BidPrice
	}
	if update.AskPrice != nil {
		s.AskPrice = update.AskPrice
	}
	if len(update.Klines) > 0 {
		s.Klines = update.Klines
	}
	if update.Ts != nil {
		s.Ts = update.Ts
	}
}

// Clone returns a shallow copy safe to hand to consumers while the cache
// entry keeps being merged into.
func (s *Summary) Clone() *Summary {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Timestamp returns the update time carried by the summary, or the zero time.
func (s *Summary) Timestamp() time.Time {
	if s.Ts == nil {
		return time.Time{}
	}
	return time.UnixMilli(*s.Ts)
}
