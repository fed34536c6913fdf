package api

import (
	"context"
	"net/url"
	"strconv"

	"cryptics.app/cryptics-client/model"
)

// Insights endpoints may live on a separate deployment, so they resolve
// against insightsBase. A 404 means no analysis exists for the pair and is
// terminal; callers should not retry it.

func (c *Client) TechnicalAnalysis(ctx context.Context, symbol string) (*model.TechnicalAnalysis, error) {
	var out model.TechnicalAnalysis
	if err := c.get(ctx, c.insightsBase, "/insights/technical/"+url.PathEscape(model.NormalizeSymbol(symbol)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SentimentAnalysis(ctx context.Context, symbol string) (*model.SentimentAnalysis, error) {
	var out model.SentimentAnalysis
	if err := c.get(ctx, c.insightsBase, "/insights/sentiment/"+url.PathEscape(model.NormalizeSymbol(symbol)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TradingSignal(ctx context.Context, symbol string) (*model.TradingSignal, error) {
	var out model.TradingSignal
	if err := c.get(ctx, c.insightsBase, "/insights/signal/"+url.PathEscape(model.NormalizeSymbol(symbol)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) QuickInsight(ctx context.Context, symbol string) (*model.QuickInsight, error) {
	var out model.QuickInsight
	if err := c.get(ctx, c.insightsBase, "/insights/quick/"+url.PathEscape(model.NormalizeSymbol(symbol)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Opportunities(ctx context.Context, limit int) (*model.Opportunities, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": []string{strconv.Itoa(limit)}}
	}
	var out model.Opportunities
	if err := c.get(ctx, c.insightsBase, "/insights/opportunities", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
