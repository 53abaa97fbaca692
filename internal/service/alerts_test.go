package service

import (
	"context"
	"testing"

	"golang-fii-analyzer/internal/dto"
	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/internal/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAlertService(alertRepo *fakeAlertRepo, fiiRepo *fakeFIIRepo, analysisRepo *fakeAnalysisRepo, dispatcher *fakeDispatcher) AlertService {
	log := testLogger()
	return NewAlertService(alertRepo, fiiRepo, analysisRepo, dispatcher, NoopTriggerCache{}, eventbus.New(log), log)
}

func TestCheckAlertInactiveNeverTriggers(t *testing.T) {
	svc := newTestAlertService(&fakeAlertRepo{}, newFakeFIIRepo(), &fakeAnalysisRepo{}, &fakeDispatcher{})

	alert := entity.Alert{
		Ticker: "HGLG11", Type: entity.AlertTypePrice,
		Condition: entity.AlertConditionBelow, Value: 1000, Active: false,
	}
	trigger := svc.CheckAlert(alert, entity.FII{Ticker: "HGLG11", Price: 150}, nil)
	assert.Nil(t, trigger)
}

func TestCheckAlertPriceBelow(t *testing.T) {
	svc := newTestAlertService(&fakeAlertRepo{}, newFakeFIIRepo(), &fakeAnalysisRepo{}, &fakeDispatcher{})
	alert := entity.Alert{
		ID: "a1", Ticker: "HGLG11", Type: entity.AlertTypePrice,
		Condition: entity.AlertConditionBelow, Value: 150, Active: true,
	}

	assert.Nil(t, svc.CheckAlert(alert, entity.FII{Ticker: "HGLG11", Price: 150.50}, nil))
	assert.Nil(t, svc.CheckAlert(alert, entity.FII{Ticker: "HGLG11", Price: 150}, nil))

	trigger := svc.CheckAlert(alert, entity.FII{Ticker: "HGLG11", Price: 149.99}, nil)
	require.NotNil(t, trigger)
	assert.Equal(t, 149.99, trigger.CurrentValue)
	assert.Contains(t, trigger.Message, "149.99")
	assert.Contains(t, trigger.Message, "BELOW 150.00")
	assert.False(t, trigger.TriggeredAt.IsZero())
}

func TestCheckAlertEqualsTolerance(t *testing.T) {
	svc := newTestAlertService(&fakeAlertRepo{}, newFakeFIIRepo(), &fakeAnalysisRepo{}, &fakeDispatcher{})
	alert := entity.Alert{
		Ticker: "HGLG11", Type: entity.AlertTypePrice,
		Condition: entity.AlertConditionEquals, Value: 100, Active: true,
	}

	assert.NotNil(t, svc.CheckAlert(alert, entity.FII{Ticker: "HGLG11", Price: 100.009}, nil))
	assert.NotNil(t, svc.CheckAlert(alert, entity.FII{Ticker: "HGLG11", Price: 99.991}, nil))
	// A difference of exactly the tolerance does not trigger.
	assert.Nil(t, svc.CheckAlert(alert, entity.FII{Ticker: "HGLG11", Price: 100.01}, nil))
	assert.Nil(t, svc.CheckAlert(alert, entity.FII{Ticker: "HGLG11", Price: 99.99}, nil))
}

func TestCheckAlertScoreRequiresAnalysis(t *testing.T) {
	svc := newTestAlertService(&fakeAlertRepo{}, newFakeFIIRepo(), &fakeAnalysisRepo{}, &fakeDispatcher{})
	alert := entity.Alert{
		Ticker: "HGLG11", Type: entity.AlertTypeScore,
		Condition: entity.AlertConditionAbove, Value: 0.7, Active: true,
	}
	fii := entity.FII{Ticker: "HGLG11", Price: 150}

	assert.Nil(t, svc.CheckAlert(alert, fii, nil))

	trigger := svc.CheckAlert(alert, fii, &entity.FIIAnalysis{Ticker: "HGLG11", Score: 0.85})
	require.NotNil(t, trigger)
	assert.Equal(t, 0.85, trigger.CurrentValue)
}

func TestCheckAlertDividendYieldAbove(t *testing.T) {
	svc := newTestAlertService(&fakeAlertRepo{}, newFakeFIIRepo(), &fakeAnalysisRepo{}, &fakeDispatcher{})
	alert := entity.Alert{
		Ticker: "MXRF11", Type: entity.AlertTypeDividendYield,
		Condition: entity.AlertConditionAbove, Value: 10, Active: true,
	}

	trigger := svc.CheckAlert(alert, entity.FII{Ticker: "MXRF11", DividendYield: 12.5}, nil)
	require.NotNil(t, trigger)
	assert.Contains(t, trigger.Message, "12.50%")
}

func TestCreateAlertValidation(t *testing.T) {
	fiiRepo := newFakeFIIRepo(entity.FII{Ticker: "HGLG11", Price: 160})
	svc := newTestAlertService(&fakeAlertRepo{}, fiiRepo, &fakeAnalysisRepo{}, &fakeDispatcher{})
	ctx := context.Background()

	cases := []struct {
		name string
		req  dto.CreateAlertRequest
	}{
		{"unknown type", dto.CreateAlertRequest{Ticker: "HGLG11", Type: "VOLUME", Condition: "ABOVE", Value: 1}},
		{"unknown condition", dto.CreateAlertRequest{Ticker: "HGLG11", Type: "PRICE", Condition: "NEAR", Value: 1}},
		{"negative price", dto.CreateAlertRequest{Ticker: "HGLG11", Type: "PRICE", Condition: "ABOVE", Value: -5}},
		{"yield out of range", dto.CreateAlertRequest{Ticker: "HGLG11", Type: "DIVIDEND_YIELD", Condition: "ABOVE", Value: 150}},
		{"score out of range", dto.CreateAlertRequest{Ticker: "HGLG11", Type: "SCORE", Condition: "ABOVE", Value: 1.5}},
		{"missing ticker", dto.CreateAlertRequest{Type: "PRICE", Condition: "ABOVE", Value: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAlert(ctx, tc.req)
			assert.ErrorIs(t, err, ErrInvalidAlert)
		})
	}
}

func TestCreateAlertUnknownTicker(t *testing.T) {
	svc := newTestAlertService(&fakeAlertRepo{}, newFakeFIIRepo(), &fakeAnalysisRepo{}, &fakeDispatcher{})

	_, err := svc.CreateAlert(context.Background(), dto.CreateAlertRequest{
		Ticker: "NOPE11", Type: "PRICE", Condition: "ABOVE", Value: 10,
	})
	assert.ErrorIs(t, err, ErrTickerNotFound)
}

func TestCreateAlertNormalizesInput(t *testing.T) {
	fiiRepo := newFakeFIIRepo(entity.FII{Ticker: "HGLG11", Price: 160})
	svc := newTestAlertService(&fakeAlertRepo{}, fiiRepo, &fakeAnalysisRepo{}, &fakeDispatcher{})

	alert, err := svc.CreateAlert(context.Background(), dto.CreateAlertRequest{
		Ticker: " hglg11 ", Type: "price", Condition: "above", Value: 170,
	})
	require.NoError(t, err)
	assert.Equal(t, "HGLG11", alert.Ticker)
	assert.Equal(t, entity.AlertTypePrice, alert.Type)
	assert.Equal(t, entity.AlertConditionAbove, alert.Condition)
	assert.True(t, alert.Active)
	assert.NotEmpty(t, alert.ID)
}

func TestCheckAllDispatchesAndCounts(t *testing.T) {
	fiiRepo := newFakeFIIRepo(
		entity.FII{Ticker: "HGLG11", Price: 140},
		entity.FII{Ticker: "MXRF11", Price: 10},
	)
	alertRepo := &fakeAlertRepo{alerts: []entity.Alert{
		{ID: "a1", Ticker: "HGLG11", Type: entity.AlertTypePrice, Condition: entity.AlertConditionBelow, Value: 150, Active: true},
		{ID: "a2", Ticker: "MXRF11", Type: entity.AlertTypePrice, Condition: entity.AlertConditionAbove, Value: 50, Active: true},
		{ID: "a3", Ticker: "HGLG11", Type: entity.AlertTypePrice, Condition: entity.AlertConditionBelow, Value: 100, Active: false},
		{ID: "a4", Ticker: "GONE11", Type: entity.AlertTypePrice, Condition: entity.AlertConditionBelow, Value: 100, Active: true},
	}}
	dispatcher := &fakeDispatcher{outcomes: []ChannelOutcome{
		{Channel: "webhook", OK: true},
		{Channel: "email", OK: false, Error: "smtp down"},
	}}
	svc := newTestAlertService(alertRepo, fiiRepo, &fakeAnalysisRepo{}, dispatcher)

	result, err := svc.CheckAll(context.Background())
	require.NoError(t, err)

	// Only a1 fires: a2 is not met, a3 is inactive, a4 has no fund record.
	assert.Equal(t, 1, result.TriggeredCount)
	require.Len(t, result.TriggeredAlerts, 1)
	assert.Equal(t, "a1", result.TriggeredAlerts[0].Alert.ID)

	assert.Equal(t, 3, result.Summary.ActiveAlerts)
	assert.Equal(t, 2, result.Summary.NotificationsAttempted)
	assert.Equal(t, 1, result.Summary.NotificationsSent)
	require.Len(t, dispatcher.sent, 1)
}

func TestCheckTickerDoesNotDispatch(t *testing.T) {
	fiiRepo := newFakeFIIRepo(entity.FII{Ticker: "HGLG11", Price: 140})
	alertRepo := &fakeAlertRepo{alerts: []entity.Alert{
		{ID: "a1", Ticker: "HGLG11", Type: entity.AlertTypePrice, Condition: entity.AlertConditionBelow, Value: 150, Active: true},
	}}
	dispatcher := &fakeDispatcher{}
	svc := newTestAlertService(alertRepo, fiiRepo, &fakeAnalysisRepo{}, dispatcher)

	triggers, err := svc.CheckTicker(context.Background(), "hglg11")
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	assert.Empty(t, dispatcher.sent)
}

func TestCheckTickerUnknownFund(t *testing.T) {
	svc := newTestAlertService(&fakeAlertRepo{}, newFakeFIIRepo(), &fakeAnalysisRepo{}, &fakeDispatcher{})

	_, err := svc.CheckTicker(context.Background(), "NOPE11")
	assert.ErrorIs(t, err, ErrTickerNotFound)
}

func TestToggleAlert(t *testing.T) {
	fiiRepo := newFakeFIIRepo(entity.FII{Ticker: "HGLG11", Price: 160})
	alertRepo := &fakeAlertRepo{alerts: []entity.Alert{
		{ID: "a1", Ticker: "HGLG11", Type: entity.AlertTypePrice, Condition: entity.AlertConditionAbove, Value: 170, Active: true},
	}}
	svc := newTestAlertService(alertRepo, fiiRepo, &fakeAnalysisRepo{}, &fakeDispatcher{})

	alert, err := svc.ToggleAlert(context.Background(), "a1", false)
	require.NoError(t, err)
	assert.False(t, alert.Active)

	stored, err := svc.GetAlert(context.Background(), "a1")
	require.NoError(t, err)
	assert.False(t, stored.Active)
}
