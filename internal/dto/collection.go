package dto

import "golang-fii-analyzer/internal/entity"

// CollectRequest selects which source adapters to invoke and whether the
// aggregated records should be persisted.
type CollectRequest struct {
	Sources []string `json:"sources"`
	Persist bool     `json:"persist"`
}

// SourceResult is the per-source outcome of one collection cycle: a success
// with records or a typed failure with a reason.
type SourceResult struct {
	Success bool         `json:"success"`
	Data    []entity.FII `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Source  string       `json:"source"`
}

// CollectionResult aggregates a collection cycle across all requested sources.
// One source failing does not prevent others from contributing.
type CollectionResult struct {
	TotalCollected int                     `json:"total_collected"`
	Sources        map[string]SourceResult `json:"sources"`
	Errors         []string                `json:"errors"`
	FIIs           []entity.FII            `json:"-"`
}
