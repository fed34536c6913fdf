package model

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/mitchellh/mapstructure"
)

// Kline is one OHLCV candle. The backend (and the upstream exchange it
// proxies) emits candles in two shapes: a keyed object and a positional
// array with the close price at index 4, index 3 on short arrays. Both are
// resolved here, at the boundary; the rest of the codebase only ever sees
// this struct.
type Kline struct {
	OpenTime  int64   `json:"open_time" mapstructure:"open_time"`
	Open      float64 `json:"open" mapstructure:"open"`
	High      float64 `json:"high" mapstructure:"high"`
	Low       float64 `json:"low" mapstructure:"low"`
	Close     float64 `json:"close" mapstructure:"close"`
	Volume    float64 `json:"volume" mapstructure:"volume"`
	CloseTime int64   `json:"close_time,omitempty" mapstructure:"close_time"`
}

func (k *Kline) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty kline payload")
	}
	if trimmed[0] == '[' {
		var raw []interface{}
		if err := sonic.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		return k.fromArray(raw)
	}

	var m map[string]interface{}
	if err := sonic.Unmarshal(trimmed, &m); err != nil {
		return err
	}
	return k.FromMap(m)
}

// FromMap decodes the keyed object form. Numeric fields arrive as numbers or
// strings depending on which upstream produced them, so the decode is weakly
// typed.
func (k *Kline) FromMap(m map[string]interface{}) error {
	// some feeds label the open time plainly "ts"
	if _, ok := m["open_time"]; !ok {
		if ts, ok := m["ts"]; ok {
			m["open_time"] = ts
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           k,
	})
	if err != nil {
		return err
	}
	return dec.Decode(m)
}

func (k *Kline) fromArray(raw []interface{}) error {
	if len(raw) < 5 {
		return fmt.Errorf("kline array too short: %d elements", len(raw))
	}

	if len(raw) >= 6 {
		// exchange layout: [open_time, open, high, low, close, volume, close_time?]
		k.OpenTime = asInt(raw[0])
		k.Open = asFloat(raw[1])
		k.High = asFloat(raw[2])
		k.Low = asFloat(raw[3])
		k.Close = asFloat(raw[4])
		k.Volume = asFloat(raw[5])
		if len(raw) >= 7 {
			k.CloseTime = asInt(raw[6])
		}
		return nil
	}

	// 5-element layout has no leading timestamp; close sits one slot earlier
	k.Open = asFloat(raw[0])
	k.High = asFloat(raw[1])
	k.Low = asFloat(raw[2])
	k.Close = asFloat(raw[3])
	k.Volume = asFloat(raw[4])
	return nil
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asInt(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}
