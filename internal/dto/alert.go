package dto

import "golang-fii-analyzer/internal/entity"

// CreateAlertRequest is the input for creating a new alert rule.
type CreateAlertRequest struct {
	Ticker    string  `json:"ticker"`
	Type      string  `json:"type"`
	Condition string  `json:"condition"`
	Value     float64 `json:"value"`
	Message   string  `json:"message,omitempty"`
}

// UpdateAlertRequest is the input for updating an existing alert rule. Nil
// fields are left unchanged.
type UpdateAlertRequest struct {
	Condition *string  `json:"condition,omitempty"`
	Value     *float64 `json:"value,omitempty"`
	Active    *bool    `json:"active,omitempty"`
	Message   *string  `json:"message,omitempty"`
}

// CheckAlertsSummary counts the rules evaluated and notifications delivered
// during one alert check cycle.
type CheckAlertsSummary struct {
	ActiveAlerts           int `json:"active_alerts"`
	NotificationsAttempted int `json:"notifications_attempted"`
	NotificationsSent      int `json:"notifications_sent"`
}

// CheckAlertsResult is the outcome of one alert check cycle.
type CheckAlertsResult struct {
	TriggeredCount  int                   `json:"triggered_count"`
	TriggeredAlerts []entity.AlertTrigger `json:"triggered_alerts"`
	Summary         CheckAlertsSummary    `json:"summary"`
}
