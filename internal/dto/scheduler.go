package dto

// SchedulerStatus reports the scheduler's running state and per-task intervals.
type SchedulerStatus struct {
	Running                   bool `json:"running"`
	CollectionIntervalMinutes int  `json:"collection_interval_minutes"`
	AnalysisIntervalMinutes   int  `json:"analysis_interval_minutes"`
	AlertCheckIntervalMinutes int  `json:"alert_check_interval_minutes"`
	CollectionBusy            bool `json:"collection_busy"`
	AnalysisBusy              bool `json:"analysis_busy"`
	AlertCheckBusy            bool `json:"alert_check_busy"`
}

// SchedulerConfigUpdate is a partial scheduler configuration: nil fields keep
// the current value. Interval changes take effect on the next Start or via the
// scheduler's re-registration.
type SchedulerConfigUpdate struct {
	Enabled                   *bool `json:"enabled,omitempty"`
	CollectionIntervalMinutes *int  `json:"collection_interval_minutes,omitempty"`
	AnalysisIntervalMinutes   *int  `json:"analysis_interval_minutes,omitempty"`
	AlertCheckIntervalMinutes *int  `json:"alert_check_interval_minutes,omitempty"`
}
