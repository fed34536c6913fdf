package api

import (
	"context"
	"net/url"
	"strconv"

	"cryptics.app/cryptics-client/model"
)

type SummariesOptions struct {
	IncludeKlines bool
	KlineInterval string
	KlineLimit    int
}

func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, c.baseURL, "/market/ping", nil, nil)
}

type priceResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	var out priceResponse
	if err := c.get(ctx, c.baseURL, "/market/price/"+url.PathEscape(model.NormalizeSymbol(symbol)), nil, &out); err != nil {
		return 0, err
	}
	return out.Price, nil
}

func (c *Client) Summary(ctx context.Context, symbol string) (*model.Summary, error) {
	var out model.Summary
	if err := c.get(ctx, c.baseURL, "/market/summary/"+url.PathEscape(model.NormalizeSymbol(symbol)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summaries fetches a snapshot for a set of symbols in one call.
func (c *Client) Summaries(ctx context.Context, symbols []string, options SummariesOptions) ([]*model.Summary, error) {
	query := url.Values{}
	query.Set("symbols", model.JoinSymbols(symbols))
	if options.IncludeKlines {
		query.Set("include_klines", "true")
		if options.KlineInterval != "" {
			query.Set("kline_interval", options.KlineInterval)
		}
		if options.KlineLimit > 0 {
			query.Set("kline_limit", strconv.Itoa(options.KlineLimit))
		}
	}

	var out []*model.Summary
	if err := c.get(ctx, c.baseURL, "/market/summaries", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]model.Kline, error) {
	query := url.Values{}
	query.Set("symbol", model.NormalizeSymbol(symbol))
	if interval != "" {
		query.Set("interval", interval)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var out []model.Kline
	if err := c.get(ctx, c.baseURL, "/market/klines", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}
