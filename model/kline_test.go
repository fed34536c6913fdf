package model

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKlineObjectShape(t *testing.T) {
	var k Kline
	require.NoError(t, sonic.Unmarshal([]byte(
		`{"open_time":1700000000000,"open":"100.5","high":101,"low":99.5,"close":"100.9","volume":12.5,"close_time":1700000060000}`), &k))

	assert.Equal(t, int64(1700000000000), k.OpenTime)
	assert.Equal(t, 100.5, k.Open)
	assert.Equal(t, 100.9, k.Close)
	assert.Equal(t, int64(1700000060000), k.CloseTime)
}

func TestKlineObjectShapeWithTsAlias(t *testing.T) {
	var k Kline
	require.NoError(t, sonic.Unmarshal([]byte(`{"ts":1700000000000,"close":42}`), &k))
	assert.Equal(t, int64(1700000000000), k.OpenTime)
	assert.Equal(t, 42.0, k.Close)
}

func TestKlineExchangeArrayShape(t *testing.T) {
	var k Kline
	require.NoError(t, sonic.Unmarshal([]byte(
		`[1700000000000,"100.5","101","99.5","100.9","12.5",1700000060000]`), &k))

	assert.Equal(t, int64(1700000000000), k.OpenTime)
	assert.Equal(t, 100.9, k.Close, "close is index 4 in the exchange layout")
	assert.Equal(t, 12.5, k.Volume)
}

func TestKlineShortArrayShape(t *testing.T) {
	var k Kline
	require.NoError(t, sonic.Unmarshal([]byte(`[100.5,101,99.5,100.9,12.5]`), &k))

	assert.Equal(t, int64(0), k.OpenTime)
	assert.Equal(t, 100.9, k.Close, "close is index 3 when there is no leading timestamp")
}

func TestKlineRejectsTooShortArray(t *testing.T) {
	var k Kline
	assert.Error(t, sonic.Unmarshal([]byte(`[1,2,3]`), &k))
}
