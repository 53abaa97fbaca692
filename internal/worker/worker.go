package worker

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"golang-fii-analyzer/internal/config"
	"golang-fii-analyzer/internal/dto"
	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/internal/eventbus"
	"golang-fii-analyzer/internal/repository"
	"golang-fii-analyzer/pkg/logger"
	"golang-fii-analyzer/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const defaultPollingInterval = time.Second

// Worker is a single-consumer job queue. Jobs are processed one at a time in
// priority order; each execution is persisted and the most recent outcomes are
// kept in memory for quick inspection.
type Worker interface {
	Start(ctx context.Context)
	Stop()
	Enqueue(req dto.EnqueueJobRequest) (string, error)
	Status() dto.WorkerStatus
	Stats() dto.WorkerStats
	RecentResults() []entity.JobExecution
	History(ctx context.Context, limit int) ([]entity.JobExecution, error)
	GetJobStatus(ctx context.Context, jobID string) (*entity.JobExecution, error)
}

// NewWorker creates a worker over the given job strategies.
func NewWorker(cfg *config.Config, strategies []JobExecutionStrategy, jobExecutionRepo repository.JobExecutionRepository, bus *eventbus.Bus, log *logger.Logger) Worker {
	pollingInterval := defaultPollingInterval
	if d, err := time.ParseDuration(cfg.Worker.PollingInterval); err == nil && d > 0 {
		pollingInterval = d
	}

	maxRecent := cfg.Worker.MaxRecentResults
	if maxRecent <= 0 {
		maxRecent = 50
	}

	byType := make(map[entity.JobType]JobExecutionStrategy, len(strategies))
	for _, s := range strategies {
		byType[s.GetType()] = s
	}

	return &worker{
		strategies:       byType,
		jobExecutionRepo: jobExecutionRepo,
		bus:              bus,
		logger:           log,
		pollingInterval:  pollingInterval,
		maxRecent:        maxRecent,
	}
}

type worker struct {
	strategies       map[entity.JobType]JobExecutionStrategy
	jobExecutionRepo repository.JobExecutionRepository
	bus              *eventbus.Bus
	logger           *logger.Logger
	pollingInterval  time.Duration
	maxRecent        int

	mu         sync.Mutex
	queue      []*Job
	currentJob *Job
	recent     []entity.JobExecution
	running    bool
	totalJobs  int
	successful int
	failed     int

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Start launches the consumer loop. Starting an already-running worker is a
// no-op; a stopped worker can be started again.
func (w *worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger.Info("Worker already running")
		return
	}
	w.running = true
	// Each run gets its own stop channel so a restart after Stop does not
	// observe the previously closed one.
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	w.wg.Add(1)
	utils.GoSafe(func() {
		defer w.wg.Done()
		w.loop(ctx, stopCh)
	})
	w.logger.Info("Worker started",
		logger.StringField("polling_interval", w.pollingInterval.String()))
}

// Stop signals the consumer loop and waits for it to finish. A job already in
// progress is allowed to complete.
func (w *worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("Worker stopped")
}

// Enqueue validates and queues a job, returning its generated ID. HIGH
// priority jobs are placed at the front of the queue.
func (w *worker) Enqueue(req dto.EnqueueJobRequest) (string, error) {
	jobType := entity.JobType(req.Type)
	if _, ok := w.strategies[jobType]; !ok {
		return "", fmt.Errorf("unknown job type: %s", req.Type)
	}

	priority := entity.JobPriority(req.Priority)
	switch priority {
	case "":
		priority = entity.JobPriorityNormal
	case entity.JobPriorityLow, entity.JobPriorityNormal, entity.JobPriorityHigh:
	default:
		return "", fmt.Errorf("unknown job priority: %s", req.Priority)
	}

	persist := true
	if req.Persist != nil {
		persist = *req.Persist
	}

	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Priority:  priority,
		Sources:   req.Sources,
		Persist:   persist,
		CreatedAt: utils.TimeNowBRT(),
	}

	w.mu.Lock()
	if priority == entity.JobPriorityHigh {
		w.queue = append([]*Job{job}, w.queue...)
	} else {
		w.queue = append(w.queue, job)
	}
	w.mu.Unlock()

	w.logger.Info("Job enqueued",
		logger.StringField("job_id", job.ID),
		logger.StringField("type", string(job.Type)),
		logger.StringField("priority", string(job.Priority)))
	return job.ID, nil
}

func (w *worker) loop(ctx context.Context, stopCh <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		default:
		}

		job := w.dequeue()
		if job == nil {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case <-time.After(w.pollingInterval):
			}
			continue
		}

		w.process(ctx, job)
	}
}

func (w *worker) dequeue() *Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return nil
	}
	job := w.queue[0]
	w.queue = w.queue[1:]
	w.currentJob = job
	return job
}

func (w *worker) process(ctx context.Context, job *Job) {
	execution := &entity.JobExecution{
		JobID:     job.ID,
		Type:      job.Type,
		Priority:  job.Priority,
		Status:    entity.JobStatusRunning,
		StartedAt: utils.TimeNowBRT(),
	}
	if err := w.jobExecutionRepo.Create(ctx, execution); err != nil {
		w.logger.ErrorContext(ctx, "Failed to record job execution",
			logger.ErrorField(err), logger.StringField("job_id", job.ID))
	}

	w.bus.Publish(entity.Event{
		Type:      entity.EventWorkerJobStarted,
		Source:    "worker",
		Timestamp: execution.StartedAt,
		Payload:   job,
	})
	w.logger.InfoContext(ctx, "Job started",
		logger.StringField("job_id", job.ID),
		logger.StringField("type", string(job.Type)))

	payload, err := w.strategies[job.Type].Execute(ctx, job)

	completedAt := utils.TimeNowBRT()
	execution.CompletedAt = sql.NullTime{Time: completedAt, Valid: true}
	execution.DurationMS = completedAt.Sub(execution.StartedAt).Milliseconds()
	if payload != "" {
		execution.Result = datatypes.JSON(payload)
	}

	eventType := entity.EventWorkerJobCompleted
	if err != nil {
		execution.Status = entity.JobStatusFailed
		execution.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		eventType = entity.EventWorkerJobFailed
		w.logger.ErrorContext(ctx, "Job failed",
			logger.ErrorField(err),
			logger.StringField("job_id", job.ID),
			logger.StringField("type", string(job.Type)))
	} else {
		execution.Status = entity.JobStatusCompleted
		w.logger.InfoContext(ctx, "Job completed",
			logger.StringField("job_id", job.ID),
			logger.StringField("type", string(job.Type)),
			logger.Field("duration_ms", execution.DurationMS))
	}

	if updateErr := w.jobExecutionRepo.Update(ctx, execution); updateErr != nil {
		w.logger.ErrorContext(ctx, "Failed to update job execution",
			logger.ErrorField(updateErr), logger.StringField("job_id", job.ID))
	}

	w.bus.Publish(entity.Event{
		Type:      eventType,
		Source:    "worker",
		Timestamp: completedAt,
		Payload:   execution,
	})

	w.mu.Lock()
	w.currentJob = nil
	w.totalJobs++
	if err != nil {
		w.failed++
	} else {
		w.successful++
	}
	w.recent = append(w.recent, *execution)
	if len(w.recent) > w.maxRecent {
		w.recent = w.recent[len(w.recent)-w.maxRecent:]
	}
	w.mu.Unlock()
}

// Status reports the queue length and lifetime job counters.
func (w *worker) Status() dto.WorkerStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return dto.WorkerStatus{
		Running:        w.running,
		QueueLength:    len(w.queue),
		TotalJobs:      w.totalJobs,
		SuccessfulJobs: w.successful,
		FailedJobs:     w.failed,
	}
}

// Stats aggregates duration and success rate over the recent-results window.
func (w *worker) Stats() dto.WorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.recent) == 0 {
		return dto.WorkerStats{}
	}

	var totalDuration int64
	var successful int
	for _, r := range w.recent {
		totalDuration += r.DurationMS
		if r.Status == entity.JobStatusCompleted {
			successful++
		}
	}
	return dto.WorkerStats{
		AverageDurationMS: float64(totalDuration) / float64(len(w.recent)),
		SuccessRate:       float64(successful) / float64(len(w.recent)),
	}
}

// RecentResults returns the in-memory window of processed executions, newest
// last.
func (w *worker) RecentResults() []entity.JobExecution {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]entity.JobExecution, len(w.recent))
	copy(out, w.recent)
	return out
}

// History returns persisted executions, newest first. Unlike RecentResults it
// survives process restarts.
func (w *worker) History(ctx context.Context, limit int) ([]entity.JobExecution, error) {
	return w.jobExecutionRepo.FindRecent(ctx, limit)
}

// GetJobStatus resolves a job's current state: queued jobs report PENDING, the
// in-flight job reports RUNNING, and finished jobs come from the execution
// record.
func (w *worker) GetJobStatus(ctx context.Context, jobID string) (*entity.JobExecution, error) {
	w.mu.Lock()
	if w.currentJob != nil && w.currentJob.ID == jobID {
		job := w.currentJob
		w.mu.Unlock()
		return &entity.JobExecution{
			JobID:    job.ID,
			Type:     job.Type,
			Priority: job.Priority,
			Status:   entity.JobStatusRunning,
		}, nil
	}
	for _, job := range w.queue {
		if job.ID == jobID {
			w.mu.Unlock()
			return &entity.JobExecution{
				JobID:    job.ID,
				Type:     job.Type,
				Priority: job.Priority,
				Status:   entity.JobStatusPending,
			}, nil
		}
	}
	w.mu.Unlock()

	return w.jobExecutionRepo.FindByJobID(ctx, jobID)
}
