package entity

import "time"

// EventType identifies a lifecycle event published on the event bus.
type EventType string

const (
	EventCollectionStarted   EventType = "COLLECTION_STARTED"
	EventCollectionCompleted EventType = "COLLECTION_COMPLETED"
	EventCollectionFailed    EventType = "COLLECTION_FAILED"
	EventAnalysisStarted     EventType = "ANALYSIS_STARTED"
	EventAnalysisCompleted   EventType = "ANALYSIS_COMPLETED"
	EventAnalysisFailed      EventType = "ANALYSIS_FAILED"
	EventAlertCheckStarted   EventType = "ALERT_CHECK_STARTED"
	EventAlertCheckCompleted EventType = "ALERT_CHECK_COMPLETED"
	EventAlertTriggered      EventType = "ALERT_TRIGGERED"
	EventWorkerJobStarted    EventType = "WORKER_JOB_STARTED"
	EventWorkerJobCompleted  EventType = "WORKER_JOB_COMPLETED"
	EventWorkerJobFailed     EventType = "WORKER_JOB_FAILED"
)

// Event is a fire-and-forget message delivered at most once to the handlers
// subscribed at publish time.
type Event struct {
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}
