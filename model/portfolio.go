package model

import "time"

const (
	TransactionBuy        = "buy"
	TransactionSell       = "sell"
	TransactionDeposit    = "deposit"
	TransactionWithdrawal = "withdrawal"
)

type Transaction struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Symbol          string    `json:"symbol"`
	TransactionType string    `json:"transaction_type"`
	Quantity        float64   `json:"quantity"`
	Price           float64   `json:"price"`
	Fee             float64   `json:"fee"`
	Total           float64   `json:"total"`
	Notes           string    `json:"notes,omitempty"`
	ExecutedAt      time.Time `json:"executed_at"`
	CreatedAt       time.Time `json:"created_at"`
}

type TransactionCreate struct {
	Symbol          string     `json:"symbol"`
	TransactionType string     `json:"transaction_type"`
	Quantity        float64    `json:"quantity"`
	Price           float64    `json:"price"`
	Fee             float64    `json:"fee"`
	Notes           string     `json:"notes,omitempty"`
	ExecutedAt      *time.Time `json:"executed_at,omitempty"`
}

type TransactionHistory struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
}

type Holding struct {
	Symbol               string  `json:"symbol"`
	TotalQuantity        float64 `json:"total_quantity"`
	AverageBuyPrice      float64 `json:"average_buy_price"`
	CurrentPrice         float64 `json:"current_price"`
	CurrentValue         float64 `json:"current_value"`
	CostBasis            float64 `json:"cost_basis"`
	UnrealizedPnL        float64 `json:"unrealized_pnl"`
	UnrealizedPnLPercent float64 `json:"unrealized_pnl_percent"`
	AllocationPercent    float64 `json:"allocation_percent"`
}

type PortfolioSummary struct {
	TotalValue      float64   `json:"total_value"`
	TotalCost       float64   `json:"total_cost"`
	TotalPnL        float64   `json:"total_pnl"`
	TotalPnLPercent float64   `json:"total_pnl_percent"`
	Holdings        []Holding `json:"holdings"`
	CashBalance     float64   `json:"cash_balance"`
}

type PerformanceMetrics struct {
	Period                  string    `json:"period"`
	StartDate               time.Time `json:"start_date"`
	EndDate                 time.Time `json:"end_date"`
	StartingValue           float64   `json:"starting_value"`
	EndingValue             float64   `json:"ending_value"`
	AbsoluteReturn          float64   `json:"absolute_return"`
	PercentReturn           float64   `json:"percent_return"`
	BestPerformingAsset     *string   `json:"best_performing_asset,omitempty"`
	BestPerformancePercent  *float64  `json:"best_performance_percent,omitempty"`
	WorstPerformingAsset    *string   `json:"worst_performing_asset,omitempty"`
	WorstPerformancePercent *float64  `json:"worst_performance_percent,omitempty"`
	TotalTransactions       int       `json:"total_transactions"`
	TotalFeesPaid           float64   `json:"total_fees_paid"`
}

type PortfolioAllocation struct {
	Symbol   string  `json:"symbol"`
	Value    float64 `json:"value"`
	Percent  float64 `json:"percent"`
	Quantity float64 `json:"quantity"`
}

type RiskMetrics struct {
	Volatility         float64  `json:"volatility"`
	SharpeRatio        *float64 `json:"sharpe_ratio,omitempty"`
	MaxDrawdown        float64  `json:"max_drawdown"`
	MaxDrawdownPercent float64  `json:"max_drawdown_percent"`
	ConcentrationRisk  float64  `json:"concentration_risk"`
}

type PortfolioAnalytics struct {
	Allocation           []PortfolioAllocation `json:"allocation"`
	RiskMetrics          RiskMetrics           `json:"risk_metrics"`
	TopHoldings          []Holding             `json:"top_holdings"`
	DiversificationScore float64               `json:"diversification_score"`
}

// PortfolioStats is the condensed shape served to the dashboard header.
type PortfolioStats struct {
	TotalValue       float64 `json:"total_value"`
	TotalPnL         float64 `json:"total_pnl"`
	TotalPnLPercent  float64 `json:"total_pnl_percent"`
	Change24h        float64 `json:"change_24h"`
	Change24hPercent float64 `json:"change_24h_percent"`
	HoldingsCount    int     `json:"holdings_count"`
	TopHolding       *string `json:"top_holding,omitempty"`
}
