package entity

import "time"

// Recommendation is the advisory call derived from a fund's score.
type Recommendation string

const (
	RecommendationBuy  Recommendation = "BUY"
	RecommendationHold Recommendation = "HOLD"
	RecommendationSell Recommendation = "SELL"
)

// FIIAnalysis is a derived scoring result. A batch produced by one analysis
// cycle shares a single AnalyzedAt timestamp; the "latest" view selects the
// maximum timestamp. Rows are appended, never updated.
type FIIAnalysis struct {
	ID             uint           `gorm:"primaryKey" json:"-"`
	Ticker         string         `gorm:"index;not null" json:"ticker"`
	Name           string         `json:"name"`
	Price          float64        `json:"price"`
	DividendYield  float64        `json:"dividend_yield"`
	PVP            float64        `json:"pvp"`
	Score          float64        `json:"score"`
	Rank           int            `json:"rank"`
	Recommendation Recommendation `json:"recommendation"`
	Analysis       string         `json:"analysis"`
	AnalyzedAt     time.Time      `gorm:"index;not null" json:"analyzed_at"`
}

// AnalysisStats summarises one analysis batch.
type AnalysisStats struct {
	BuyCount  int `json:"buy_count"`
	HoldCount int `json:"hold_count"`
	SellCount int `json:"sell_count"`
}
