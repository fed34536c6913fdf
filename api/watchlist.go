package api

import (
	"context"
	"net/http"
	"net/url"

	"cryptics.app/cryptics-client/model"
)

func (c *Client) Watchlist(ctx context.Context) ([]model.WatchlistItem, error) {
	var out []model.WatchlistItem
	if err := c.get(ctx, c.baseURL, "/watchlist/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddWatchlistItem(ctx context.Context, item model.WatchlistItemCreate) (*model.WatchlistItem, error) {
	item.Symbol = model.NormalizeSymbol(item.Symbol)
	var out model.WatchlistItem
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL, "/watchlist/", nil, item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateWatchlistItem(ctx context.Context, id string, update model.WatchlistItemUpdate) (*model.WatchlistItem, error) {
	var out model.WatchlistItem
	if err := c.doJSON(ctx, http.MethodPut, c.baseURL, "/watchlist/"+url.PathEscape(id), nil, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveWatchlistItem(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, c.baseURL, "/watchlist/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) Alerts(ctx context.Context) ([]model.Alert, error) {
	var out []model.Alert
	if err := c.get(ctx, c.baseURL, "/watchlist/alerts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAlert(ctx context.Context, alert model.AlertCreate) (*model.Alert, error) {
	alert.Symbol = model.NormalizeSymbol(alert.Symbol)
	var out model.Alert
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL, "/watchlist/alerts", nil, alert, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAlert(ctx context.Context, id string, update model.AlertUpdate) (*model.Alert, error) {
	var out model.Alert
	if err := c.doJSON(ctx, http.MethodPut, c.baseURL, "/watchlist/alerts/"+url.PathEscape(id), nil, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAlert(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, c.baseURL, "/watchlist/alerts/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) Preferences(ctx context.Context) (*model.UserPreferences, error) {
	var out model.UserPreferences
	if err := c.get(ctx, c.baseURL, "/watchlist/preferences", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePreferences(ctx context.Context, update model.UserPreferencesUpdate) (*model.UserPreferences, error) {
	var out model.UserPreferences
	if err := c.doJSON(ctx, http.MethodPut, c.baseURL, "/watchlist/preferences", nil, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
