package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"golang-fii-analyzer/internal/config"
	"golang-fii-analyzer/internal/dto"
	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/internal/eventbus"
	"golang-fii-analyzer/internal/repository"
	"golang-fii-analyzer/pkg/logger"
	"golang-fii-analyzer/pkg/utils"
)

// AnalyzerService scores and ranks fund records against a scoring policy.
// Analyze is pure and deterministic; AnalyzeAndStore runs a full cycle against
// the stored current records and appends the batch.
type AnalyzerService interface {
	Analyze(fiis []entity.FII, override *dto.PolicyOverride) []entity.FIIAnalysis
	AnalyzeAndStore(ctx context.Context, override *dto.PolicyOverride) (*dto.AnalysisResultSet, error)
	Policy() dto.AnalysisPolicy
	UpdatePolicy(override dto.PolicyOverride)
}

// NewAnalyzerService creates an analyzer with the default policy from config.
func NewAnalyzerService(cfg *config.Config, fiiRepo repository.FIIRepository, analysisRepo repository.AnalysisRepository, bus *eventbus.Bus, log *logger.Logger) AnalyzerService {
	return &analyzerService{
		defaultPolicy: dto.AnalysisPolicy{
			MinDividendYield:    cfg.Analysis.MinDividendYield,
			MaxPVP:              cfg.Analysis.MaxPVP,
			MinPrice:            cfg.Analysis.MinPrice,
			MaxPrice:            cfg.Analysis.MaxPrice,
			WeightDividendYield: cfg.Analysis.WeightDividendYield,
			WeightPVP:           cfg.Analysis.WeightPVP,
			WeightPrice:         cfg.Analysis.WeightPrice,
			WeightLiquidity:     cfg.Analysis.WeightLiquidity,
		},
		fiiRepo:      fiiRepo,
		analysisRepo: analysisRepo,
		bus:          bus,
		logger:       log,
	}
}

type analyzerService struct {
	mu            sync.RWMutex
	defaultPolicy dto.AnalysisPolicy
	fiiRepo       repository.FIIRepository
	analysisRepo  repository.AnalysisRepository
	bus           *eventbus.Bus
	logger        *logger.Logger
}

// Policy returns the current default policy.
func (s *analyzerService) Policy() dto.AnalysisPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultPolicy
}

// UpdatePolicy permanently applies the override to the default policy.
func (s *analyzerService) UpdatePolicy(override dto.PolicyOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultPolicy = override.Apply(s.defaultPolicy)
}

// Analyze filters, scores, ranks, and annotates the given records. An override
// applies to this call only. Empty input or an all-filtered batch yields an
// empty result, not an error.
func (s *analyzerService) Analyze(fiis []entity.FII, override *dto.PolicyOverride) []entity.FIIAnalysis {
	policy := override.Apply(s.Policy())

	keep := And(
		MinDividendYield(policy.MinDividendYield),
		MaxPVP(policy.MaxPVP),
		PriceBetween(policy.MinPrice, policy.MaxPrice),
		PositivePrice(),
	)

	analyses := make([]entity.FIIAnalysis, 0, len(fiis))
	for _, fii := range fiis {
		if !keep(fii) {
			continue
		}
		score := calculateScore(fii, policy)
		analyses = append(analyses, entity.FIIAnalysis{
			Ticker:         fii.Ticker,
			Name:           fii.Name,
			Price:          fii.Price,
			DividendYield:  fii.DividendYield,
			PVP:            fii.PVP,
			Score:          score,
			Recommendation: recommendationFor(score),
			Analysis:       buildRationale(fii, score),
		})
	}

	// Stable: ties keep filter order.
	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].Score > analyses[j].Score
	})
	for i := range analyses {
		analyses[i].Rank = i + 1
	}
	return analyses
}

// AnalyzeAndStore loads the current records, analyzes them, and appends the
// batch under a single shared timestamp.
func (s *analyzerService) AnalyzeAndStore(ctx context.Context, override *dto.PolicyOverride) (*dto.AnalysisResultSet, error) {
	s.publish(entity.EventAnalysisStarted, nil)

	fiis, err := s.fiiRepo.FindAll(ctx)
	if err != nil {
		s.publish(entity.EventAnalysisFailed, err.Error())
		return nil, fmt.Errorf("load fund records: %w", err)
	}

	analyses := s.Analyze(fiis, override)
	analyzedAt := utils.TimeNowBRT()
	for i := range analyses {
		analyses[i].AnalyzedAt = analyzedAt
	}

	if len(analyses) > 0 {
		if err := s.analysisRepo.CreateBatch(ctx, analyses); err != nil {
			s.publish(entity.EventAnalysisFailed, err.Error())
			return nil, fmt.Errorf("store analyses: %w", err)
		}
	}

	stats := entity.AnalysisStats{}
	for _, a := range analyses {
		switch a.Recommendation {
		case entity.RecommendationBuy:
			stats.BuyCount++
		case entity.RecommendationHold:
			stats.HoldCount++
		case entity.RecommendationSell:
			stats.SellCount++
		}
	}

	s.logger.InfoContext(ctx, "Analysis cycle finished",
		logger.IntField("analyzed", len(analyses)),
		logger.IntField("buy", stats.BuyCount),
		logger.IntField("hold", stats.HoldCount),
		logger.IntField("sell", stats.SellCount))
	s.publish(entity.EventAnalysisCompleted, map[string]interface{}{
		"analyzed": len(analyses),
		"stats":    stats,
	})

	return &dto.AnalysisResultSet{Analyses: analyses, Stats: stats, AnalyzedAt: analyzedAt}, nil
}

// calculateScore computes the 0..1 weighted score. A 20% yield saturates the
// yield term; 0.5 is the ideal price-to-book; R$50 is the ideal unit price.
func calculateScore(fii entity.FII, policy dto.AnalysisPolicy) float64 {
	score := math.Min(fii.DividendYield/20, 1) * policy.WeightDividendYield
	score += math.Max(0, 1-(fii.PVP-0.5)/0.5) * policy.WeightPVP
	score += math.Max(0, 1-math.Abs(fii.Price-50)/50) * policy.WeightPrice
	score += liquidityProxy(fii.Price) * policy.WeightLiquidity

	if fii.DividendYield > 15 {
		score += 0.1
	}
	if fii.PVP > 1.5 {
		score -= 0.1
	}

	return math.Max(0, math.Min(1, score))
}

// liquidityProxy is a coarse price-bucket stand-in for traded volume.
func liquidityProxy(price float64) float64 {
	switch {
	case price > 100:
		return 0.8
	case price > 50:
		return 0.6
	case price > 20:
		return 0.4
	default:
		return 0.2
	}
}

func recommendationFor(score float64) entity.Recommendation {
	switch {
	case score >= 0.7:
		return entity.RecommendationBuy
	case score >= 0.4:
		return entity.RecommendationHold
	default:
		return entity.RecommendationSell
	}
}

// buildRationale renders the advisory text summarising the yield, valuation,
// and price tiers plus the final call. Not used for any downstream decision.
func buildRationale(fii entity.FII, score float64) string {
	var parts []string

	switch {
	case fii.DividendYield > 15:
		parts = append(parts, fmt.Sprintf("exceptional DY of %.2f%%", fii.DividendYield))
	case fii.DividendYield > 10:
		parts = append(parts, fmt.Sprintf("attractive DY of %.2f%%", fii.DividendYield))
	case fii.DividendYield > 6:
		parts = append(parts, fmt.Sprintf("adequate DY of %.2f%%", fii.DividendYield))
	default:
		parts = append(parts, fmt.Sprintf("low DY of %.2f%%", fii.DividendYield))
	}

	switch {
	case fii.PVP < 0.8:
		parts = append(parts, fmt.Sprintf("discounted P/VP of %.2f", fii.PVP))
	case fii.PVP < 1.0:
		parts = append(parts, fmt.Sprintf("attractive P/VP of %.2f", fii.PVP))
	case fii.PVP < 1.2:
		parts = append(parts, fmt.Sprintf("fair P/VP of %.2f", fii.PVP))
	default:
		parts = append(parts, fmt.Sprintf("high P/VP of %.2f", fii.PVP))
	}

	switch {
	case fii.Price < 20:
		parts = append(parts, fmt.Sprintf("accessible price of R$ %.2f", fii.Price))
	case fii.Price < 50:
		parts = append(parts, fmt.Sprintf("moderate price of R$ %.2f", fii.Price))
	default:
		parts = append(parts, fmt.Sprintf("elevated price of R$ %.2f", fii.Price))
	}

	switch {
	case score >= 0.8:
		parts = append(parts, "strong buy recommendation")
	case score >= 0.6:
		parts = append(parts, "buy recommendation")
	case score >= 0.4:
		parts = append(parts, "hold position")
	default:
		parts = append(parts, "consider selling")
	}

	return strings.Join(parts, ". ")
}

func (s *analyzerService) publish(eventType entity.EventType, payload interface{}) {
	s.bus.Publish(entity.Event{
		Type:      eventType,
		Source:    "analyzer",
		Timestamp: utils.TimeNowBRT(),
		Payload:   payload,
	})
}
