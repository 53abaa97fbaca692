package service

import (
	"context"
	"fmt"
	"sync"

	"golang-fii-analyzer/internal/dto"
	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/internal/eventbus"
	"golang-fii-analyzer/internal/repository"
	"golang-fii-analyzer/internal/scraper"
	"golang-fii-analyzer/pkg/logger"
	"golang-fii-analyzer/pkg/utils"
)

// CollectorService runs the collection pipeline: fan out to the requested
// source adapters, aggregate successes, record per-source failures, and
// optionally persist current records plus history samples.
type CollectorService interface {
	Collect(ctx context.Context, req dto.CollectRequest) *dto.CollectionResult
}

// NewCollectorService creates a new collector service.
func NewCollectorService(registry *scraper.Registry, fiiRepo repository.FIIRepository, bus *eventbus.Bus, log *logger.Logger) CollectorService {
	return &collectorService{
		registry: registry,
		fiiRepo:  fiiRepo,
		bus:      bus,
		logger:   log,
	}
}

type collectorService struct {
	registry *scraper.Registry
	fiiRepo  repository.FIIRepository
	bus      *eventbus.Bus
	logger   *logger.Logger
}

// Collect invokes each requested adapter concurrently. Failures are isolated
// per source; persistence failures are recorded as errors without discarding
// the in-memory records already collected.
func (s *collectorService) Collect(ctx context.Context, req dto.CollectRequest) *dto.CollectionResult {
	s.publish(entity.EventCollectionStarted, map[string]interface{}{"sources": req.Sources})
	s.logger.InfoContext(ctx, "Collection started",
		logger.IntField("sources", len(req.Sources)), logger.Field("persist", req.Persist))

	result := &dto.CollectionResult{
		Sources: make(map[string]dto.SourceResult, len(req.Sources)),
		Errors:  []string{},
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, source := range req.Sources {
		sc, err := s.registry.Get(source)
		if err != nil {
			// Unknown identifier is a typed per-source failure, not an abort.
			// Adapter goroutines from earlier iterations may already be
			// writing the shared result, so this branch locks too.
			msg := err.Error()
			mu.Lock()
			result.Sources[source] = dto.SourceResult{Success: false, Error: msg, Source: source}
			result.Errors = append(result.Errors, msg)
			mu.Unlock()
			s.logger.ErrorContext(ctx, "Unknown collection source", logger.StringField("source", source))
			continue
		}

		wg.Add(1)
		source := source
		utils.GoSafe(func() {
			defer wg.Done()
			sourceResult := s.scrapeOne(ctx, sc)

			mu.Lock()
			defer mu.Unlock()
			result.Sources[source] = sourceResult
			if sourceResult.Success {
				result.FIIs = append(result.FIIs, sourceResult.Data...)
			} else {
				result.Errors = append(result.Errors, sourceResult.Error)
			}
		})
	}
	wg.Wait()

	result.TotalCollected = len(result.FIIs)

	if req.Persist && result.TotalCollected > 0 {
		if err := s.persist(ctx, result.FIIs); err != nil {
			msg := fmt.Sprintf("failed to persist collected records: %v", err)
			result.Errors = append(result.Errors, msg)
			s.logger.ErrorContext(ctx, "Collection persistence failed", logger.ErrorField(err))
		}
	}

	if result.TotalCollected == 0 && len(result.Errors) > 0 {
		s.publish(entity.EventCollectionFailed, result)
	} else {
		s.publish(entity.EventCollectionCompleted, map[string]interface{}{
			"total_collected": result.TotalCollected,
			"errors":          len(result.Errors),
		})
	}

	s.logger.InfoContext(ctx, "Collection finished",
		logger.IntField("total_collected", result.TotalCollected),
		logger.IntField("errors", len(result.Errors)))
	return result
}

func (s *collectorService) scrapeOne(ctx context.Context, sc scraper.Scraper) dto.SourceResult {
	fiis, err := sc.Scrape(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Source scrape failed",
			logger.StringField("source", sc.Name()), logger.ErrorField(err))
		return dto.SourceResult{Success: false, Error: err.Error(), Source: sc.Name()}
	}
	return dto.SourceResult{Success: true, Data: fiis, Source: sc.Name()}
}

// persist upserts current records by ticker and appends one history sample per
// collected record.
func (s *collectorService) persist(ctx context.Context, fiis []entity.FII) error {
	if err := s.fiiRepo.UpsertBatch(ctx, dedupeByTicker(fiis)); err != nil {
		return fmt.Errorf("upsert funds: %w", err)
	}
	if err := s.fiiRepo.AppendHistory(ctx, fiis); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// dedupeByTicker keeps the last record per ticker. Multiple sources reporting
// the same fund in one cycle must collapse to a single row before the upsert:
// Postgres rejects a multi-row ON CONFLICT DO UPDATE that touches the same
// conflict key twice.
func dedupeByTicker(fiis []entity.FII) []entity.FII {
	index := make(map[string]int, len(fiis))
	out := make([]entity.FII, 0, len(fiis))
	for _, fii := range fiis {
		if i, ok := index[fii.Ticker]; ok {
			out[i] = fii
			continue
		}
		index[fii.Ticker] = len(out)
		out = append(out, fii)
	}
	return out
}

func (s *collectorService) publish(eventType entity.EventType, payload interface{}) {
	s.bus.Publish(entity.Event{
		Type:      eventType,
		Source:    "collector",
		Timestamp: utils.TimeNowBRT(),
		Payload:   payload,
	})
}
