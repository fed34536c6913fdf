package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cryptics.app/cryptics-client/model"
)

// TransactionsOptions filters the transaction history. Zero values leave the
// corresponding filter off.
type TransactionsOptions struct {
	Symbol          string
	TransactionType string
	StartDate       *time.Time
	EndDate         *time.Time
	Limit           int
	Offset          int
}

func (c *Client) AddTransaction(ctx context.Context, payload model.TransactionCreate) (*model.Transaction, error) {
	payload.Symbol = model.NormalizeSymbol(payload.Symbol)
	var out model.Transaction
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL, "/portfolio/transactions", nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Transactions(ctx context.Context, options TransactionsOptions) (*model.TransactionHistory, error) {
	query := url.Values{}
	if options.Symbol != "" {
		query.Set("symbol", model.NormalizeSymbol(options.Symbol))
	}
	if options.TransactionType != "" {
		query.Set("transaction_type", options.TransactionType)
	}
	if options.StartDate != nil {
		query.Set("start_date", options.StartDate.Format(time.RFC3339))
	}
	if options.EndDate != nil {
		query.Set("end_date", options.EndDate.Format(time.RFC3339))
	}
	if options.Limit > 0 {
		query.Set("limit", strconv.Itoa(options.Limit))
	}
	if options.Offset > 0 {
		query.Set("offset", strconv.Itoa(options.Offset))
	}

	var out model.TransactionHistory
	if err := c.get(ctx, c.baseURL, "/portfolio/transactions", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Holdings(ctx context.Context) ([]model.Holding, error) {
	var out []model.Holding
	if err := c.get(ctx, c.baseURL, "/portfolio/holdings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PortfolioSummary(ctx context.Context) (*model.PortfolioSummary, error) {
	var out model.PortfolioSummary
	if err := c.get(ctx, c.baseURL, "/portfolio/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PortfolioPerformance accepts the backend's period values: 24h, 7d, 30d,
// 90d or all. An empty period falls back to the server default.
func (c *Client) PortfolioPerformance(ctx context.Context, period string) (*model.PerformanceMetrics, error) {
	var query url.Values
	if period != "" {
		query = url.Values{"period": []string{period}}
	}
	var out model.PerformanceMetrics
	if err := c.get(ctx, c.baseURL, "/portfolio/performance", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PortfolioAnalytics(ctx context.Context) (*model.PortfolioAnalytics, error) {
	var out model.PortfolioAnalytics
	if err := c.get(ctx, c.baseURL, "/portfolio/analytics", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PortfolioStats(ctx context.Context) (*model.PortfolioStats, error) {
	var out model.PortfolioStats
	if err := c.get(ctx, c.baseURL, "/portfolio/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
