package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang-fii-analyzer/internal/dto"
	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/internal/service"
)

// Job is a discrete unit of queued work.
type Job struct {
	ID        string             `json:"id"`
	Type      entity.JobType     `json:"type"`
	Priority  entity.JobPriority `json:"priority"`
	Sources   []string           `json:"sources,omitempty"`
	Persist   bool               `json:"persist"`
	CreatedAt time.Time          `json:"created_at"`
}

// JobExecutionStrategy defines how one job type is executed. The returned
// string is a JSON result payload stored with the execution record.
type JobExecutionStrategy interface {
	Execute(ctx context.Context, job *Job) (string, error)
	GetType() entity.JobType
}

// CollectStrategy runs a collection cycle.
type CollectStrategy struct {
	collector      service.CollectorService
	defaultSources []string
}

// NewCollectStrategy creates the COLLECT job strategy.
func NewCollectStrategy(collector service.CollectorService, defaultSources []string) *CollectStrategy {
	return &CollectStrategy{collector: collector, defaultSources: defaultSources}
}

// GetType returns the job type this strategy handles.
func (s *CollectStrategy) GetType() entity.JobType {
	return entity.JobTypeCollect
}

// Execute runs the collection pipeline for the job's sources.
func (s *CollectStrategy) Execute(ctx context.Context, job *Job) (string, error) {
	sources := job.Sources
	if len(sources) == 0 {
		sources = s.defaultSources
	}

	result := s.collector.Collect(ctx, dto.CollectRequest{Sources: sources, Persist: job.Persist})
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal collection result: %w", err)
	}
	if result.TotalCollected == 0 && len(result.Errors) > 0 {
		return string(payload), fmt.Errorf("collection produced no records: %s", result.Errors[0])
	}
	return string(payload), nil
}

// AnalyzeStrategy runs an analysis cycle.
type AnalyzeStrategy struct {
	analyzer service.AnalyzerService
}

// NewAnalyzeStrategy creates the ANALYZE job strategy.
func NewAnalyzeStrategy(analyzer service.AnalyzerService) *AnalyzeStrategy {
	return &AnalyzeStrategy{analyzer: analyzer}
}

// GetType returns the job type this strategy handles.
func (s *AnalyzeStrategy) GetType() entity.JobType {
	return entity.JobTypeAnalyze
}

// Execute runs the scoring engine over the stored current records.
func (s *AnalyzeStrategy) Execute(ctx context.Context, _ *Job) (string, error) {
	result, err := s.analyzer.AnalyzeAndStore(ctx, nil)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal analysis result: %w", err)
	}
	return string(payload), nil
}

// BothStrategy runs a collection cycle followed by an analysis cycle.
type BothStrategy struct {
	collect *CollectStrategy
	analyze *AnalyzeStrategy
}

// NewBothStrategy creates the BOTH job strategy.
func NewBothStrategy(collect *CollectStrategy, analyze *AnalyzeStrategy) *BothStrategy {
	return &BothStrategy{collect: collect, analyze: analyze}
}

// GetType returns the job type this strategy handles.
func (s *BothStrategy) GetType() entity.JobType {
	return entity.JobTypeBoth
}

// Execute chains COLLECT and ANALYZE; an empty collection still proceeds to
// analysis over the previously stored records.
func (s *BothStrategy) Execute(ctx context.Context, job *Job) (string, error) {
	collectPayload, collectErr := s.collect.Execute(ctx, job)
	analyzePayload, analyzeErr := s.analyze.Execute(ctx, job)

	payload, err := json.Marshal(map[string]json.RawMessage{
		"collect": rawOrNull(collectPayload),
		"analyze": rawOrNull(analyzePayload),
	})
	if err != nil {
		return "", err
	}

	if collectErr != nil {
		return string(payload), collectErr
	}
	return string(payload), analyzeErr
}

func rawOrNull(payload string) json.RawMessage {
	if payload == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(payload)
}
