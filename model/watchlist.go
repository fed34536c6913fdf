package model

import "time"

type WatchlistItem struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Symbol    string     `json:"symbol"`
	Notes     string     `json:"notes,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// market data attached server-side when requested
	CurrentPrice   *float64 `json:"current_price,omitempty"`
	PriceChange24h *float64 `json:"price_change_24h,omitempty"`
	Volume24h      *float64 `json:"volume_24h,omitempty"`
	High24h        *float64 `json:"high_24h,omitempty"`
	Low24h         *float64 `json:"low_24h,omitempty"`
}

type WatchlistItemCreate struct {
	Symbol string `json:"symbol"`
	Notes  string `json:"notes,omitempty"`
}

type WatchlistItemUpdate struct {
	Notes    *string `json:"notes,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

const (
	AlertPriceAbove         = "price_above"
	AlertPriceBelow         = "price_below"
	AlertVolumeSpike        = "volume_spike"
	AlertPriceChangePercent = "price_change_percent"
	AlertRSIOverbought      = "rsi_overbought"
	AlertRSIOversold        = "rsi_oversold"
)

type Alert struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Symbol      string     `json:"symbol"`
	AlertType   string     `json:"alert_type"`
	Threshold   float64    `json:"threshold"`
	Message     string     `json:"message,omitempty"`
	IsActive    bool       `json:"is_active"`
	IsRecurring bool       `json:"is_recurring"`
	TriggeredAt *time.Time `json:"triggered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type AlertCreate struct {
	Symbol      string  `json:"symbol"`
	AlertType   string  `json:"alert_type"`
	Threshold   float64 `json:"threshold"`
	Message     string  `json:"message,omitempty"`
	IsRecurring bool    `json:"is_recurring"`
}

type AlertUpdate struct {
	IsActive  *bool    `json:"is_active,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Message   *string  `json:"message,omitempty"`
}

type UserPreferences struct {
	ID                     string     `json:"id"`
	UserID                 string     `json:"user_id"`
	DefaultTimeframe       string     `json:"default_timeframe"`
	DefaultChartType       string     `json:"default_chart_type"`
	MinVolume24h           *float64   `json:"min_volume_24h,omitempty"`
	MaxPrice               *float64   `json:"max_price,omitempty"`
	MinPrice               *float64   `json:"min_price,omitempty"`
	RiskProfile             string     `json:"risk_profile"`
	MaxPositionSizePercent  float64    `json:"max_position_size_percent"`
	EnablePriceAlerts       bool       `json:"enable_price_alerts"`
	EnablePushNotifications bool       `json:"enable_push_notifications"`
	EnableEmailAlerts       bool       `json:"enable_email_alerts"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               *time.Time `json:"updated_at,omitempty"`
}

type UserPreferencesUpdate struct {
	DefaultTimeframe        *string  `json:"default_timeframe,omitempty"`
	DefaultChartType        *string  `json:"default_chart_type,omitempty"`
	MinVolume24h            *float64 `json:"min_volume_24h,omitempty"`
	MaxPrice                *float64 `json:"max_price,omitempty"`
	MinPrice                *float64 `json:"min_price,omitempty"`
	RiskProfile             *string  `json:"risk_profile,omitempty"`
	MaxPositionSizePercent  *float64 `json:"max_position_size_percent,omitempty"`
	EnablePriceAlerts       *bool    `json:"enable_price_alerts,omitempty"`
	EnablePushNotifications *bool    `json:"enable_push_notifications,omitempty"`
	EnableEmailAlerts       *bool    `json:"enable_email_alerts,omitempty"`
}
