package service

import (
	"context"
	"testing"

	"golang-fii-analyzer/internal/config"
	"golang-fii-analyzer/internal/dto"
	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/internal/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Analysis: config.Analysis{
			MinDividendYield:    6,
			MaxPVP:              1.2,
			MinPrice:            5,
			MaxPrice:            200,
			WeightDividendYield: 0.4,
			WeightPVP:           0.3,
			WeightPrice:         0.2,
			WeightLiquidity:     0.1,
		},
	}
}

func newTestAnalyzer(fiiRepo *fakeFIIRepo, analysisRepo *fakeAnalysisRepo) AnalyzerService {
	log := testLogger()
	return NewAnalyzerService(testConfig(), fiiRepo, analysisRepo, eventbus.New(log), log)
}

func TestAnalyzeScoreComputation(t *testing.T) {
	svc := newTestAnalyzer(nil, nil)

	analyses := svc.Analyze([]entity.FII{
		{Ticker: "HGLG11", Price: 45, DividendYield: 12, PVP: 0.9},
	}, nil)

	require.Len(t, analyses, 1)
	// 0.6*0.4 + 0.2*0.3 + 0.9*0.2 + 0.4*0.1
	assert.InDelta(t, 0.52, analyses[0].Score, 1e-9)
	assert.Equal(t, entity.RecommendationHold, analyses[0].Recommendation)
	assert.Equal(t, 1, analyses[0].Rank)
	assert.NotEmpty(t, analyses[0].Analysis)
}

func TestAnalyzeHighYieldBonusAndClamp(t *testing.T) {
	svc := newTestAnalyzer(nil, nil)

	analyses := svc.Analyze([]entity.FII{
		{Ticker: "MXRF11", Price: 50, DividendYield: 16, PVP: 0.6},
	}, nil)

	require.Len(t, analyses, 1)
	// 0.8*0.4 + 0.8*0.3 + 1.0*0.2 + 0.4*0.1 + 0.1 bonus
	assert.InDelta(t, 0.9, analyses[0].Score, 1e-9)
	assert.Equal(t, entity.RecommendationBuy, analyses[0].Recommendation)
	assert.LessOrEqual(t, analyses[0].Score, 1.0)
	assert.GreaterOrEqual(t, analyses[0].Score, 0.0)
}

func TestAnalyzeHighPVPPenalty(t *testing.T) {
	svc := newTestAnalyzer(nil, nil)

	maxPVP := 2.0
	with := svc.Analyze([]entity.FII{
		{Ticker: "XPTO11", Price: 50, DividendYield: 8, PVP: 1.6},
	}, &dto.PolicyOverride{MaxPVP: &maxPVP})
	without := svc.Analyze([]entity.FII{
		{Ticker: "XPTO11", Price: 50, DividendYield: 8, PVP: 1.1},
	}, &dto.PolicyOverride{MaxPVP: &maxPVP})

	require.Len(t, with, 1)
	require.Len(t, without, 1)
	assert.Less(t, with[0].Score, without[0].Score)
}

func TestAnalyzeFiltersOutOfPolicyFunds(t *testing.T) {
	svc := newTestAnalyzer(nil, nil)

	analyses := svc.Analyze([]entity.FII{
		{Ticker: "KEEP11", Price: 80, DividendYield: 9, PVP: 1.0},
		{Ticker: "LOWY11", Price: 80, DividendYield: 2, PVP: 1.0},  // yield below minimum
		{Ticker: "EXPP11", Price: 80, DividendYield: 9, PVP: 1.8},  // P/VP above maximum
		{Ticker: "CHEA11", Price: 1, DividendYield: 9, PVP: 1.0},   // price below minimum
		{Ticker: "ZERO11", Price: 0, DividendYield: 9, PVP: 1.0},   // no price at all
		{Ticker: "RICH11", Price: 500, DividendYield: 9, PVP: 1.0}, // price above maximum
	}, nil)

	require.Len(t, analyses, 1)
	assert.Equal(t, "KEEP11", analyses[0].Ticker)
}

func TestAnalyzeRanksByScoreDescending(t *testing.T) {
	svc := newTestAnalyzer(nil, nil)

	analyses := svc.Analyze([]entity.FII{
		{Ticker: "AAAA11", Price: 60, DividendYield: 7, PVP: 1.1},
		{Ticker: "BBBB11", Price: 50, DividendYield: 14, PVP: 0.7},
		{Ticker: "CCCC11", Price: 40, DividendYield: 10, PVP: 0.9},
	}, nil)

	require.Len(t, analyses, 3)
	for i := 0; i < len(analyses)-1; i++ {
		assert.GreaterOrEqual(t, analyses[i].Score, analyses[i+1].Score)
		assert.Equal(t, i+1, analyses[i].Rank)
	}
	assert.Equal(t, "BBBB11", analyses[0].Ticker)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	svc := newTestAnalyzer(nil, nil)
	input := []entity.FII{
		{Ticker: "AAAA11", Price: 60, DividendYield: 7, PVP: 1.1},
		{Ticker: "BBBB11", Price: 50, DividendYield: 14, PVP: 0.7},
	}

	first := svc.Analyze(input, nil)
	second := svc.Analyze(input, nil)
	assert.Equal(t, first, second)
}

func TestAnalyzeEmptyInput(t *testing.T) {
	svc := newTestAnalyzer(nil, nil)
	assert.Empty(t, svc.Analyze(nil, nil))
	assert.Empty(t, svc.Analyze([]entity.FII{}, nil))
}

func TestAnalyzeOverrideDoesNotMutateDefaultPolicy(t *testing.T) {
	svc := newTestAnalyzer(nil, nil)

	minYield := 12.0
	svc.Analyze([]entity.FII{{Ticker: "AAAA11", Price: 60, DividendYield: 7, PVP: 1.1}}, &dto.PolicyOverride{MinDividendYield: &minYield})

	assert.Equal(t, 6.0, svc.Policy().MinDividendYield)
}

func TestUpdatePolicyPersistsOverride(t *testing.T) {
	svc := newTestAnalyzer(nil, nil)

	minYield := 10.0
	svc.UpdatePolicy(dto.PolicyOverride{MinDividendYield: &minYield})

	assert.Equal(t, 10.0, svc.Policy().MinDividendYield)
	// Untouched fields keep their defaults.
	assert.Equal(t, 1.2, svc.Policy().MaxPVP)
}

func TestAnalyzeAndStoreSharesBatchTimestamp(t *testing.T) {
	fiiRepo := newFakeFIIRepo(
		entity.FII{Ticker: "AAAA11", Price: 60, DividendYield: 7, PVP: 1.1},
		entity.FII{Ticker: "BBBB11", Price: 50, DividendYield: 14, PVP: 0.7},
	)
	analysisRepo := &fakeAnalysisRepo{}
	svc := newTestAnalyzer(fiiRepo, analysisRepo)

	result, err := svc.AnalyzeAndStore(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, result.Analyses, 2)

	for _, a := range result.Analyses {
		assert.Equal(t, result.AnalyzedAt, a.AnalyzedAt)
	}
	require.Len(t, analysisRepo.batches, 1)
	assert.Equal(t, 2, result.Stats.BuyCount+result.Stats.HoldCount+result.Stats.SellCount)
}
