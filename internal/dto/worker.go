package dto

// EnqueueJobRequest is the input for enqueuing a discrete job.
type EnqueueJobRequest struct {
	Type     string   `json:"type"`
	Priority string   `json:"priority"`
	Sources  []string `json:"sources,omitempty"`
	Persist  *bool    `json:"persist,omitempty"`
}

// WorkerStatus reports the state of the job queue.
type WorkerStatus struct {
	Running        bool `json:"running"`
	QueueLength    int  `json:"queue_length"`
	TotalJobs      int  `json:"total_jobs"`
	SuccessfulJobs int  `json:"successful_jobs"`
	FailedJobs     int  `json:"failed_jobs"`
}

// WorkerStats aggregates processing metrics over the recent-results window.
type WorkerStats struct {
	AverageDurationMS float64 `json:"average_duration_ms"`
	SuccessRate       float64 `json:"success_rate"`
}
