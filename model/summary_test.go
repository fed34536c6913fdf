package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestMergeKeepsFieldsAbsentFromUpdate(t *testing.T) {
	s := &Summary{
		Symbol:    "BTCUSDT",
		LastPrice: f(50000),
		Volume:    f(1234.5),
		HighPrice: f(51000),
		Klines:    []Kline{{Close: 49000}},
	}

	s.Merge(&Summary{Symbol: "BTCUSDT", LastPrice: f(50100)})

	assert.Equal(t, 50100.0, *s.LastPrice)
	assert.Equal(t, 1234.5, *s.Volume, "absent field must keep the previous value")
	assert.Equal(t, 51000.0, *s.HighPrice)
	require.Len(t, s.Klines, 1, "absent klines must not be wiped")
}

func TestMergeNilUpdateIsNoop(t *testing.T) {
	s := &Summary{Symbol: "BTCUSDT", LastPrice: f(50000)}
	s.Merge(nil)
	assert.Equal(t, 50000.0, *s.LastPrice)
}

func TestCloneIsIndependent(t *testing.T) {
	s := &Summary{Symbol: "BTCUSDT", LastPrice: f(50000)}
	c := s.Clone()

	s.Merge(&Summary{LastPrice: f(60000)})
	assert.Equal(t, 50000.0, *c.LastPrice)

	var nilSummary *Summary
	assert.Nil(t, nilSummary.Clone())
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", NormalizeSymbol(" btc/usdt "))
	assert.Equal(t, "ETHUSDT", NormalizeSymbol("ETH-USDT"))
	assert.Equal(t, "SOLUSDC", NormalizeSymbol("sol_usdc"))
	assert.Equal(t, "", NormalizeSymbol("  "))
}

func TestJoinSymbolsQuery(t *testing.T) {
	assert.Equal(t, "BTCUSDT%2CETHUSDT", JoinSymbolsQuery([]string{"btc/usdt", "", "ETHUSDT"}))
}
