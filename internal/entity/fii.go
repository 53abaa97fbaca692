package entity

import (
	"strings"
	"time"
)

// FII is the current snapshot of a real-estate investment fund. Ticker is the
// merge key: collections upsert by ticker, so there is exactly one row per fund.
type FII struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	Ticker           string    `gorm:"uniqueIndex;not null" json:"ticker"`
	Name             string    `json:"name"`
	Price            float64   `json:"price"`
	DividendYield    float64   `json:"dividend_yield"`
	PVP              float64   `json:"pvp"`
	LastDividend     float64   `json:"last_dividend"`
	DividendYield12M float64   `gorm:"column:dividend_yield_12m" json:"dividend_yield_12m"`
	PriceVariation   float64   `json:"price_variation"`
	Source           string    `json:"source"`
	LastUpdate       time.Time `json:"last_update"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"-"`
}

// FIIHistory is an append-only point-in-time sample of the scoring-relevant
// fields of a fund, recorded once per successful collection cycle.
type FIIHistory struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	Ticker        string    `gorm:"index;not null" json:"ticker"`
	Price         float64   `json:"price"`
	DividendYield float64   `json:"dividend_yield"`
	PVP           float64   `json:"pvp"`
	LastDividend  float64   `json:"last_dividend"`
	RecordedAt    time.Time `gorm:"index;not null" json:"recorded_at"`
}

// NormalizeTicker uppercases and strips surrounding whitespace from a ticker code.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
