package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptics.app/cryptics-client/config"
	"cryptics.app/cryptics-client/model"
)

func newPortfolioClient(t *testing.T, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.APIOptions{BaseURL: server.URL, Timeout: 5 * time.Second}, nil)
}

func TestAddTransactionNormalizesSymbol(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/portfolio/transactions", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload model.TransactionCreate
		require.NoError(t, sonic.Unmarshal(body, &payload))
		assert.Equal(t, "BTCUSDT", payload.Symbol)
		assert.Equal(t, model.TransactionBuy, payload.TransactionType)
		assert.Equal(t, 0.5, payload.Quantity)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"11","user_id":"1","symbol":"BTCUSDT","transaction_type":"buy",
			"quantity":0.5,"price":50000,"fee":12.5,"total":25012.5,
			"executed_at":"2026-08-01T12:00:00Z","created_at":"2026-08-01T12:00:01Z"}`)
	})
	client := newPortfolioClient(t, mux)

	tx, err := client.AddTransaction(context.Background(), model.TransactionCreate{
		Symbol:          "btc/usdt",
		TransactionType: model.TransactionBuy,
		Quantity:        0.5,
		Price:           50000,
		Fee:             12.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "11", tx.ID)
	assert.Equal(t, 25012.5, tx.Total)
}

func TestTransactionsCarryFilterQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/portfolio/transactions", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "ETHUSDT", q.Get("symbol"))
		assert.Equal(t, "sell", q.Get("transaction_type"))
		assert.Equal(t, "2026-08-01T00:00:00Z", q.Get("start_date"))
		assert.Equal(t, "25", q.Get("limit"))
		assert.Equal(t, "50", q.Get("offset"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"transactions":[{"id":"3","user_id":"1","symbol":"ETHUSDT",
			"transaction_type":"sell","quantity":2,"price":3000,"fee":1,"total":5999,
			"executed_at":"2026-08-02T09:30:00Z","created_at":"2026-08-02T09:30:00Z"}],
			"total":112,"limit":25,"offset":50}`)
	})
	client := newPortfolioClient(t, mux)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	history, err := client.Transactions(context.Background(), TransactionsOptions{
		Symbol:          "eth-usdt",
		TransactionType: model.TransactionSell,
		StartDate:       &start,
		Limit:           25,
		Offset:          50,
	})
	require.NoError(t, err)
	assert.Equal(t, 112, history.Total)
	require.Len(t, history.Transactions, 1)
	assert.Equal(t, "ETHUSDT", history.Transactions[0].Symbol)
}

func TestPortfolioSummaryAndStats(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/portfolio/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total_value":31250,"total_cost":25000,"total_pnl":6250,
			"total_pnl_percent":25,"cash_balance":100,
			"holdings":[{"symbol":"BTCUSDT","total_quantity":0.5,"average_buy_price":50000,
			"current_price":62500,"current_value":31250,"cost_basis":25000,
			"unrealized_pnl":6250,"unrealized_pnl_percent":25,"allocation_percent":100}]}`)
	})
	mux.HandleFunc("/portfolio/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total_value":31250,"total_pnl":6250,"total_pnl_percent":25,
			"change_24h":310,"change_24h_percent":1,"holdings_count":1,"top_holding":"BTCUSDT"}`)
	})
	client := newPortfolioClient(t, mux)

	summary, err := client.PortfolioSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6250.0, summary.TotalPnL)
	require.Len(t, summary.Holdings, 1)
	assert.Equal(t, 25.0, summary.Holdings[0].UnrealizedPnLPercent)

	stats, err := client.PortfolioStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.HoldingsCount)
	require.NotNil(t, stats.TopHolding)
	assert.Equal(t, "BTCUSDT", *stats.TopHolding)
}

func TestPortfolioPerformancePeriod(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/portfolio/performance", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7d", r.URL.Query().Get("period"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"period":"7d","start_date":"2026-08-24T00:00:00Z",
			"end_date":"2026-08-31T00:00:00Z","starting_value":30000,"ending_value":31250,
			"absolute_return":1250,"percent_return":4.17,"best_performing_asset":"BTCUSDT",
			"best_performance_percent":4.17,"total_transactions":3,"total_fees_paid":37.5}`)
	})
	client := newPortfolioClient(t, mux)

	perf, err := client.PortfolioPerformance(context.Background(), "7d")
	require.NoError(t, err)
	assert.Equal(t, "7d", perf.Period)
	assert.Equal(t, 1250.0, perf.AbsoluteReturn)
	require.NotNil(t, perf.BestPerformingAsset)
	assert.Equal(t, "BTCUSDT", *perf.BestPerformingAsset)
}
