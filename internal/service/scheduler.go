package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang-fii-analyzer/internal/config"
	"golang-fii-analyzer/internal/dto"
	"golang-fii-analyzer/pkg/logger"

	"github.com/robfig/cron/v3"
)

// SchedulerService drives the pipeline on fixed intervals: one independent
// repeating timer each for collection, analysis, and alert checks. A tick that
// arrives while the same task is still running is skipped rather than raced.
type SchedulerService interface {
	Start(ctx context.Context)
	Stop()
	UpdateConfig(update dto.SchedulerConfigUpdate)
	Status() dto.SchedulerStatus
	RunCollection(ctx context.Context) *dto.CollectionResult
	RunAnalysis(ctx context.Context) (*dto.AnalysisResultSet, error)
	RunAlertCheck(ctx context.Context) (*dto.CheckAlertsResult, error)
}

// NewSchedulerService creates a scheduler over the collection, analysis, and
// alert services.
func NewSchedulerService(cfg *config.Config, collector CollectorService, analyzer AnalyzerService, alerts AlertService, log *logger.Logger) SchedulerService {
	return &schedulerService{
		cfg:       cfg.Scheduler,
		sources:   splitSources(cfg.Scrapers.DefaultSources),
		collector: collector,
		analyzer:  analyzer,
		alerts:    alerts,
		logger:    log,
	}
}

type schedulerService struct {
	mu        sync.Mutex
	cfg       config.Scheduler
	sources   []string
	collector CollectorService
	analyzer  AnalyzerService
	alerts    AlertService
	logger    *logger.Logger

	cron    *cron.Cron
	running bool
	baseCtx context.Context

	collectionBusy atomic.Bool
	analysisBusy   atomic.Bool
	alertCheckBusy atomic.Bool
}

// Start registers the enabled interval tasks and starts the timer loop.
// Starting an already-running or disabled scheduler is a no-op.
func (s *schedulerService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Info("Scheduler already running")
		return
	}
	if !s.cfg.Enabled {
		s.logger.Info("Scheduler disabled by configuration")
		return
	}

	s.baseCtx = ctx
	s.cron = cron.New()
	s.registerTasksLocked()
	s.cron.Start()
	s.running = true
	s.logger.Info("Scheduler started",
		logger.IntField("collection_interval_minutes", s.cfg.CollectionIntervalMinutes),
		logger.IntField("analysis_interval_minutes", s.cfg.AnalysisIntervalMinutes),
		logger.IntField("alert_check_interval_minutes", s.cfg.AlertCheckIntervalMinutes))
}

// registerTasksLocked adds one cron entry per enabled task. Caller must hold
// the mutex and have a fresh cron instance.
func (s *schedulerService) registerTasksLocked() {
	if s.cfg.CollectionIntervalMinutes > 0 {
		s.addEntry(s.cfg.CollectionIntervalMinutes, func() {
			s.RunCollection(s.baseCtx)
		})
	}
	if s.cfg.AnalysisIntervalMinutes > 0 {
		s.addEntry(s.cfg.AnalysisIntervalMinutes, func() {
			if _, err := s.RunAnalysis(s.baseCtx); err != nil {
				s.logger.Error("Scheduled analysis failed", logger.ErrorField(err))
			}
		})
	}
	if s.cfg.AlertCheckIntervalMinutes > 0 {
		s.addEntry(s.cfg.AlertCheckIntervalMinutes, func() {
			if _, err := s.RunAlertCheck(s.baseCtx); err != nil {
				s.logger.Error("Scheduled alert check failed", logger.ErrorField(err))
			}
		})
	}
}

func (s *schedulerService) addEntry(intervalMinutes int, task func()) {
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %dm", intervalMinutes), task); err != nil {
		s.logger.Error("Failed to register scheduler entry", logger.ErrorField(err))
	}
}

// Stop clears pending timers. An already-started run is not interrupted.
func (s *schedulerService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Info("Scheduler already stopped")
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.running = false
	s.logger.Info("Scheduler stopped")
}

// UpdateConfig applies the non-nil fields and, when running, re-registers the
// timer entries with the new intervals.
func (s *schedulerService) UpdateConfig(update dto.SchedulerConfigUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if update.Enabled != nil {
		s.cfg.Enabled = *update.Enabled
	}
	if update.CollectionIntervalMinutes != nil {
		s.cfg.CollectionIntervalMinutes = *update.CollectionIntervalMinutes
	}
	if update.AnalysisIntervalMinutes != nil {
		s.cfg.AnalysisIntervalMinutes = *update.AnalysisIntervalMinutes
	}
	if update.AlertCheckIntervalMinutes != nil {
		s.cfg.AlertCheckIntervalMinutes = *update.AlertCheckIntervalMinutes
	}

	if s.running {
		s.cron.Stop()
		if !s.cfg.Enabled {
			s.cron = nil
			s.running = false
			s.logger.Info("Scheduler disabled by configuration update")
		} else {
			s.cron = cron.New()
			s.registerTasksLocked()
			s.cron.Start()
		}
	}
	s.logger.Info("Scheduler configuration updated", logger.Field("config", s.cfg))
}

// Status reports the running state, intervals, and per-task busy flags.
func (s *schedulerService) Status() dto.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dto.SchedulerStatus{
		Running:                   s.running,
		CollectionIntervalMinutes: s.cfg.CollectionIntervalMinutes,
		AnalysisIntervalMinutes:   s.cfg.AnalysisIntervalMinutes,
		AlertCheckIntervalMinutes: s.cfg.AlertCheckIntervalMinutes,
		CollectionBusy:            s.collectionBusy.Load(),
		AnalysisBusy:              s.analysisBusy.Load(),
		AlertCheckBusy:            s.alertCheckBusy.Load(),
	}
}

// RunCollection runs one collection cycle over the default sources. Returns
// nil when a collection run is already in flight.
func (s *schedulerService) RunCollection(ctx context.Context) *dto.CollectionResult {
	if !s.collectionBusy.CompareAndSwap(false, true) {
		s.logger.Info("Collection tick skipped, previous run still in flight")
		return nil
	}
	defer s.collectionBusy.Store(false)

	return s.collector.Collect(ctx, dto.CollectRequest{Sources: s.sources, Persist: true})
}

// RunAnalysis runs one analysis cycle with the default policy.
func (s *schedulerService) RunAnalysis(ctx context.Context) (*dto.AnalysisResultSet, error) {
	if !s.analysisBusy.CompareAndSwap(false, true) {
		s.logger.Info("Analysis tick skipped, previous run still in flight")
		return nil, nil
	}
	defer s.analysisBusy.Store(false)

	return s.analyzer.AnalyzeAndStore(ctx, nil)
}

// RunAlertCheck runs one alert check cycle.
func (s *schedulerService) RunAlertCheck(ctx context.Context) (*dto.CheckAlertsResult, error) {
	if !s.alertCheckBusy.CompareAndSwap(false, true) {
		s.logger.Info("Alert check tick skipped, previous run still in flight")
		return nil, nil
	}
	defer s.alertCheckBusy.Store(false)

	return s.alerts.CheckAll(ctx)
}

func splitSources(csv string) []string {
	var sources []string
	for _, s := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			sources = append(sources, trimmed)
		}
	}
	return sources
}
