package dto

import (
	"time"

	"golang-fii-analyzer/internal/entity"
)

// AnalysisPolicy is the scoring policy: filter bounds plus the relative
// weights of the four score terms. Weights conventionally sum to 1 but are
// not required to.
type AnalysisPolicy struct {
	MinDividendYield    float64 `json:"min_dividend_yield"`
	MaxPVP              float64 `json:"max_pvp"`
	MinPrice            float64 `json:"min_price"`
	MaxPrice            float64 `json:"max_price"`
	WeightDividendYield float64 `json:"weight_dividend_yield"`
	WeightPVP           float64 `json:"weight_pvp"`
	WeightPrice         float64 `json:"weight_price"`
	WeightLiquidity     float64 `json:"weight_liquidity"`
}

// PolicyOverride is a partial policy: nil fields keep the engine default.
// Applying an override for a single call does not mutate the default.
type PolicyOverride struct {
	MinDividendYield    *float64 `json:"min_dividend_yield,omitempty"`
	MaxPVP              *float64 `json:"max_pvp,omitempty"`
	MinPrice            *float64 `json:"min_price,omitempty"`
	MaxPrice            *float64 `json:"max_price,omitempty"`
	WeightDividendYield *float64 `json:"weight_dividend_yield,omitempty"`
	WeightPVP           *float64 `json:"weight_pvp,omitempty"`
	WeightPrice         *float64 `json:"weight_price,omitempty"`
	WeightLiquidity     *float64 `json:"weight_liquidity,omitempty"`
}

// Apply returns a copy of the policy with the override's non-nil fields set.
func (o *PolicyOverride) Apply(policy AnalysisPolicy) AnalysisPolicy {
	if o == nil {
		return policy
	}
	if o.MinDividendYield != nil {
		policy.MinDividendYield = *o.MinDividendYield
	}
	if o.MaxPVP != nil {
		policy.MaxPVP = *o.MaxPVP
	}
	if o.MinPrice != nil {
		policy.MinPrice = *o.MinPrice
	}
	if o.MaxPrice != nil {
		policy.MaxPrice = *o.MaxPrice
	}
	if o.WeightDividendYield != nil {
		policy.WeightDividendYield = *o.WeightDividendYield
	}
	if o.WeightPVP != nil {
		policy.WeightPVP = *o.WeightPVP
	}
	if o.WeightPrice != nil {
		policy.WeightPrice = *o.WeightPrice
	}
	if o.WeightLiquidity != nil {
		policy.WeightLiquidity = *o.WeightLiquidity
	}
	return policy
}

// AnalysisResultSet is the outcome of one stored analysis cycle.
type AnalysisResultSet struct {
	Analyses   []entity.FIIAnalysis `json:"analyses"`
	Stats      entity.AnalysisStats `json:"stats"`
	AnalyzedAt time.Time            `json:"analyzed_at"`
}
