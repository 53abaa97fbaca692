package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"golang-fii-analyzer/internal/dto"
	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/internal/eventbus"
	"golang-fii-analyzer/internal/repository"
	"golang-fii-analyzer/pkg/logger"
	"golang-fii-analyzer/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// equalsTolerance is the float tolerance for EQUALS conditions. A difference
// of exactly the tolerance does not trigger.
const equalsTolerance = 0.01

// ErrTickerNotFound is returned when a rule references a fund with no stored
// current record.
var ErrTickerNotFound = errors.New("no fund record found for ticker")

// ErrInvalidAlert is returned when a rule fails validation.
var ErrInvalidAlert = errors.New("invalid alert")

// AlertService manages alert rules and evaluates them against current fund
// records and latest analyses.
type AlertService interface {
	CreateAlert(ctx context.Context, req dto.CreateAlertRequest) (*entity.Alert, error)
	UpdateAlert(ctx context.Context, id string, req dto.UpdateAlertRequest) (*entity.Alert, error)
	DeleteAlert(ctx context.Context, id string) error
	ToggleAlert(ctx context.Context, id string, active bool) (*entity.Alert, error)
	GetAlert(ctx context.Context, id string) (*entity.Alert, error)
	ListAlerts(ctx context.Context) ([]entity.Alert, error)
	CheckAlert(alert entity.Alert, fii entity.FII, analysis *entity.FIIAnalysis) *entity.AlertTrigger
	CheckAll(ctx context.Context) (*dto.CheckAlertsResult, error)
	CheckTicker(ctx context.Context, ticker string) ([]entity.AlertTrigger, error)
}

// NewAlertService creates a new alert service.
func NewAlertService(
	alertRepo repository.AlertRepository,
	fiiRepo repository.FIIRepository,
	analysisRepo repository.AnalysisRepository,
	dispatcher NotificationDispatcher,
	triggerCache TriggerCache,
	bus *eventbus.Bus,
	log *logger.Logger,
) AlertService {
	return &alertService{
		alertRepo:    alertRepo,
		fiiRepo:      fiiRepo,
		analysisRepo: analysisRepo,
		dispatcher:   dispatcher,
		triggerCache: triggerCache,
		bus:          bus,
		logger:       log,
	}
}

type alertService struct {
	alertRepo    repository.AlertRepository
	fiiRepo      repository.FIIRepository
	analysisRepo repository.AnalysisRepository
	dispatcher   NotificationDispatcher
	triggerCache TriggerCache
	bus          *eventbus.Bus
	logger       *logger.Logger
}

// CreateAlert validates and persists a new rule. The target ticker must have
// a stored current record.
func (s *alertService) CreateAlert(ctx context.Context, req dto.CreateAlertRequest) (*entity.Alert, error) {
	alert := entity.Alert{
		ID:        uuid.NewString(),
		Ticker:    entity.NormalizeTicker(req.Ticker),
		Type:      entity.AlertType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Condition: entity.AlertCondition(strings.ToUpper(strings.TrimSpace(req.Condition))),
		Value:     req.Value,
		Active:    true,
		Message:   req.Message,
	}

	if err := validateAlert(alert); err != nil {
		return nil, err
	}

	if _, err := s.fiiRepo.FindByTicker(ctx, alert.Ticker); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, alert.Ticker)
		}
		return nil, err
	}

	if err := s.alertRepo.Create(ctx, &alert); err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}

	s.logger.InfoContext(ctx, "Alert created",
		logger.StringField("alert_id", alert.ID),
		logger.StringField("ticker", alert.Ticker),
		logger.StringField("type", string(alert.Type)))
	return &alert, nil
}

// UpdateAlert applies the non-nil fields of the request to an existing rule.
func (s *alertService) UpdateAlert(ctx context.Context, id string, req dto.UpdateAlertRequest) (*entity.Alert, error) {
	alert, err := s.alertRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Condition != nil {
		alert.Condition = entity.AlertCondition(strings.ToUpper(strings.TrimSpace(*req.Condition)))
	}
	if req.Value != nil {
		alert.Value = *req.Value
	}
	if req.Active != nil {
		alert.Active = *req.Active
	}
	if req.Message != nil {
		alert.Message = *req.Message
	}

	if err := validateAlert(*alert); err != nil {
		return nil, err
	}
	if err := s.alertRepo.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("update alert: %w", err)
	}
	return alert, nil
}

// DeleteAlert removes a rule.
func (s *alertService) DeleteAlert(ctx context.Context, id string) error {
	return s.alertRepo.Delete(ctx, id)
}

// ToggleAlert flips a rule's active flag.
func (s *alertService) ToggleAlert(ctx context.Context, id string, active bool) (*entity.Alert, error) {
	return s.UpdateAlert(ctx, id, dto.UpdateAlertRequest{Active: utils.ToPointer(active)})
}

// GetAlert retrieves one rule.
func (s *alertService) GetAlert(ctx context.Context, id string) (*entity.Alert, error) {
	return s.alertRepo.FindByID(ctx, id)
}

// ListAlerts retrieves every rule.
func (s *alertService) ListAlerts(ctx context.Context) ([]entity.Alert, error) {
	return s.alertRepo.FindAll(ctx)
}

// CheckAlert evaluates one rule against a current record and, for SCORE rules,
// the fund's latest analysis. Inactive rules and SCORE rules without a
// matching analysis never trigger.
func (s *alertService) CheckAlert(alert entity.Alert, fii entity.FII, analysis *entity.FIIAnalysis) *entity.AlertTrigger {
	if !alert.Active {
		return nil
	}

	var observed float64
	var message string
	switch alert.Type {
	case entity.AlertTypePrice:
		observed = fii.Price
		message = fmt.Sprintf("%s price reached R$ %.2f", fii.Ticker, observed)
	case entity.AlertTypeDividendYield:
		observed = fii.DividendYield
		message = fmt.Sprintf("%s dividend yield reached %.2f%%", fii.Ticker, observed)
	case entity.AlertTypePriceToBook:
		observed = fii.PVP
		message = fmt.Sprintf("%s P/VP reached %.2f", fii.Ticker, observed)
	case entity.AlertTypeScore:
		if analysis == nil {
			return nil
		}
		observed = analysis.Score
		message = fmt.Sprintf("%s score reached %.2f", fii.Ticker, observed)
	default:
		return nil
	}

	if !evaluateCondition(observed, alert.Condition, alert.Value) {
		return nil
	}

	return &entity.AlertTrigger{
		Alert:        alert,
		CurrentValue: observed,
		TriggeredAt:  utils.TimeNowBRT(),
		Message:      fmt.Sprintf("%s (%s %.2f)", message, alert.Condition, alert.Value),
	}
}

// CheckAll evaluates every active rule, dispatches notifications for new
// triggers, and reports attempted vs sent counts.
func (s *alertService) CheckAll(ctx context.Context) (*dto.CheckAlertsResult, error) {
	s.publish(entity.EventAlertCheckStarted, nil)

	alerts, err := s.alertRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}

	result := &dto.CheckAlertsResult{
		TriggeredAlerts: []entity.AlertTrigger{},
		Summary:         dto.CheckAlertsSummary{ActiveAlerts: len(alerts)},
	}

	var latestByTicker map[string]entity.FIIAnalysis
	for _, alert := range alerts {
		fii, err := s.fiiRepo.FindByTicker(ctx, alert.Ticker)
		if err != nil {
			// Rules whose ticker has no current record are skipped, not failed.
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.ErrorContext(ctx, "Failed to load fund for alert",
					logger.StringField("ticker", alert.Ticker), logger.ErrorField(err))
			}
			continue
		}

		var analysis *entity.FIIAnalysis
		if alert.Type == entity.AlertTypeScore {
			if latestByTicker == nil {
				latestByTicker, err = s.loadLatestAnalyses(ctx)
				if err != nil {
					s.logger.ErrorContext(ctx, "Failed to load latest analyses", logger.ErrorField(err))
					latestByTicker = map[string]entity.FIIAnalysis{}
				}
			}
			if a, ok := latestByTicker[alert.Ticker]; ok {
				analysis = &a
			}
		}

		trigger := s.CheckAlert(alert, *fii, analysis)
		if trigger == nil {
			continue
		}

		result.TriggeredAlerts = append(result.TriggeredAlerts, *trigger)
		s.publish(entity.EventAlertTriggered, *trigger)
		s.logger.InfoContext(ctx, "Alert triggered",
			logger.StringField("ticker", alert.Ticker),
			logger.StringField("type", string(alert.Type)),
			logger.Float64Field("observed", trigger.CurrentValue))

		if !s.triggerCache.ShouldNotify(ctx, *trigger) {
			s.logger.DebugContext(ctx, "Trigger suppressed by resend damper",
				logger.StringField("alert_id", trigger.Alert.ID))
			continue
		}

		outcomes := s.dispatcher.Send(ctx, *trigger)
		result.Summary.NotificationsAttempted += len(outcomes)
		for _, outcome := range outcomes {
			if outcome.OK {
				result.Summary.NotificationsSent++
			}
		}
		s.triggerCache.MarkNotified(ctx, *trigger)
	}

	result.TriggeredCount = len(result.TriggeredAlerts)
	s.publish(entity.EventAlertCheckCompleted, result.Summary)
	s.logger.InfoContext(ctx, "Alert check finished",
		logger.IntField("triggered", result.TriggeredCount),
		logger.IntField("active", result.Summary.ActiveAlerts))
	return result, nil
}

// CheckTicker evaluates all rules targeting one fund without dispatching
// notifications.
func (s *alertService) CheckTicker(ctx context.Context, ticker string) ([]entity.AlertTrigger, error) {
	fii, err := s.fiiRepo.FindByTicker(ctx, ticker)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, entity.NormalizeTicker(ticker))
		}
		return nil, err
	}

	alerts, err := s.alertRepo.FindByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	var latestByTicker map[string]entity.FIIAnalysis
	var triggers []entity.AlertTrigger
	for _, alert := range alerts {
		var analysis *entity.FIIAnalysis
		if alert.Type == entity.AlertTypeScore {
			if latestByTicker == nil {
				if latestByTicker, err = s.loadLatestAnalyses(ctx); err != nil {
					return nil, err
				}
			}
			if a, ok := latestByTicker[alert.Ticker]; ok {
				analysis = &a
			}
		}
		if trigger := s.CheckAlert(alert, *fii, analysis); trigger != nil {
			triggers = append(triggers, *trigger)
		}
	}
	return triggers, nil
}

func (s *alertService) loadLatestAnalyses(ctx context.Context) (map[string]entity.FIIAnalysis, error) {
	latest, err := s.analysisRepo.FindLatest(ctx)
	if err != nil {
		return nil, err
	}
	byTicker := make(map[string]entity.FIIAnalysis, len(latest))
	for _, a := range latest {
		byTicker[a.Ticker] = a
	}
	return byTicker, nil
}

func evaluateCondition(observed float64, condition entity.AlertCondition, target float64) bool {
	switch condition {
	case entity.AlertConditionAbove:
		return observed > target
	case entity.AlertConditionBelow:
		return observed < target
	case entity.AlertConditionEquals:
		return math.Abs(observed-target) < equalsTolerance
	default:
		return false
	}
}

// validateAlert applies the type-specific range checks rejected before
// persistence: price > 0, yield in [0,100], ratio > 0, score in [0,1].
func validateAlert(alert entity.Alert) error {
	var problems []string

	if alert.Ticker == "" {
		problems = append(problems, "ticker is required")
	}

	switch alert.Type {
	case entity.AlertTypePrice:
		if alert.Value <= 0 {
			problems = append(problems, "price value must be greater than zero")
		}
	case entity.AlertTypeDividendYield:
		if alert.Value < 0 || alert.Value > 100 {
			problems = append(problems, "dividend yield value must be between 0 and 100")
		}
	case entity.AlertTypePriceToBook:
		if alert.Value <= 0 {
			problems = append(problems, "price-to-book value must be greater than zero")
		}
	case entity.AlertTypeScore:
		if alert.Value < 0 || alert.Value > 1 {
			problems = append(problems, "score value must be between 0 and 1")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid alert type: %s", alert.Type))
	}

	switch alert.Condition {
	case entity.AlertConditionAbove, entity.AlertConditionBelow, entity.AlertConditionEquals:
	default:
		problems = append(problems, fmt.Sprintf("invalid alert condition: %s", alert.Condition))
	}

	if math.IsNaN(alert.Value) || math.IsInf(alert.Value, 0) {
		problems = append(problems, "value must be a finite number")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAlert, strings.Join(problems, "; "))
	}
	return nil
}

func (s *alertService) publish(eventType entity.EventType, payload interface{}) {
	s.bus.Publish(entity.Event{
		Type:      eventType,
		Source:    "alerts",
		Timestamp: utils.TimeNowBRT(),
		Payload:   payload,
	})
}
