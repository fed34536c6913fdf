package model

import "time"

// Signal values emitted by the backend's insights engine.
const (
	SignalStrongBuy  = "STRONG_BUY"
	SignalBuy        = "BUY"
	SignalHold       = "HOLD"
	SignalSell       = "SELL"
	SignalStrongSell = "STRONG_SELL"
)

type TechnicalIndicators struct {
	RSI                float64 `json:"rsi"`
	RSISignal          string  `json:"rsi_signal"`
	MACD               float64 `json:"macd"`
	MACDSignal         float64 `json:"macd_signal"`
	MACDHistogram      float64 `json:"macd_histogram"`
	MACDInterpretation string  `json:"macd_interpretation"`
	BollingerUpper     float64 `json:"bollinger_upper"`
	BollingerMiddle    float64 `json:"bollinger_middle"`
	BollingerLower     float64 `json:"bollinger_lower"`
	BollingerPosition  string  `json:"bollinger_position"`
	SMA20              float64 `json:"sma_20"`
	SMA50              float64 `json:"sma_50"`
	SMATrend           string  `json:"sma_trend"`
	VolumeSMA          float64 `json:"volume_sma"`
	VolumeRatio        float64 `json:"volume_ratio"`
}

type TechnicalAnalysis struct {
	Symbol     string              `json:"symbol"`
	Signal     string              `json:"signal"`
	Confidence int                 `json:"confidence"`
	Indicators TechnicalIndicators `json:"indicators"`
	Summary    string              `json:"summary"`
	Timestamp  time.Time           `json:"timestamp"`
}

type NewsArticle struct {
	Title          string    `json:"title"`
	Source         string    `json:"source"`
	PublishedAt    time.Time `json:"published_at"`
	URL            string    `json:"url,omitempty"`
	Sentiment      string    `json:"sentiment"`
	SentimentScore float64   `json:"sentiment_score"`
}

type SentimentAnalysis struct {
	Symbol           string        `json:"symbol"`
	OverallSentiment string        `json:"overall_sentiment"`
	SentimentScore   float64       `json:"sentiment_score"`
	NewsCount        int           `json:"news_count"`
	PositiveCount    int           `json:"positive_count"`
	NegativeCount    int           `json:"negative_count"`
	NeutralCount     int           `json:"neutral_count"`
	Articles         []NewsArticle `json:"articles"`
	Summary          string        `json:"summary"`
	Timestamp        time.Time     `json:"timestamp"`
}

type TradingSignal struct {
	Symbol              string    `json:"symbol"`
	Signal              string    `json:"signal"`
	Confidence          int       `json:"confidence"`
	Reasoning           string    `json:"reasoning"`
	CurrentPrice        float64   `json:"current_price"`
	EntryPrice          *float64  `json:"entry_price,omitempty"`
	TargetPrice         *float64  `json:"target_price,omitempty"`
	StopLoss            *float64  `json:"stop_loss,omitempty"`
	RiskLevel           string    `json:"risk_level"`
	SuitableForProfiles []string  `json:"suitable_for_profiles"`
	TechnicalScore      int       `json:"technical_score"`
	SentimentScore      float64   `json:"sentiment_score"`
	Timestamp           time.Time `json:"timestamp"`
}

type Insight struct {
	Symbol            string              `json:"symbol"`
	Signal            TradingSignal       `json:"signal"`
	TechnicalAnalysis TechnicalIndicators `json:"technical_analysis"`
	Sentiment         *SentimentAnalysis  `json:"sentiment,omitempty"`
	LastUpdated       time.Time           `json:"last_updated"`
}

type MarketOpportunity struct {
	Symbol         string  `json:"symbol"`
	Signal         string  `json:"signal"`
	Confidence     int     `json:"confidence"`
	Reason         string  `json:"reason"`
	CurrentPrice   float64 `json:"current_price"`
	PriceChange24h float64 `json:"price_change_24h"`
	RiskLevel      string  `json:"risk_level"`
}

type Opportunities struct {
	Opportunities      []MarketOpportunity `json:"opportunities"`
	BasedOnRiskProfile string              `json:"based_on_risk_profile"`
	TotalAnalyzed      int                 `json:"total_analyzed"`
	Timestamp          time.Time           `json:"timestamp"`
}

// QuickInsight is the lightweight shape served to watchlist cards.
type QuickInsight struct {
	Symbol     string  `json:"symbol"`
	Signal     string  `json:"signal"`
	Confidence int     `json:"confidence"`
	Summary    string  `json:"summary"`
	RSI        float64 `json:"rsi"`
	Timestamp  string  `json:"timestamp"`
}
