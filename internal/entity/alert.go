package entity

import "time"

// AlertType selects which observed value an alert rule is evaluated against.
type AlertType string

const (
	AlertTypePrice         AlertType = "PRICE"
	AlertTypeDividendYield AlertType = "DIVIDEND_YIELD"
	AlertTypePriceToBook   AlertType = "PRICE_TO_BOOK"
	AlertTypeScore         AlertType = "SCORE"
)

// AlertCondition is the comparison applied between observed and target value.
type AlertCondition string

const (
	AlertConditionAbove  AlertCondition = "ABOVE"
	AlertConditionBelow  AlertCondition = "BELOW"
	AlertConditionEquals AlertCondition = "EQUALS"
)

// Alert is a user-defined threshold rule on a fund.
type Alert struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	Ticker    string         `gorm:"index;not null" json:"ticker"`
	Type      AlertType      `gorm:"not null" json:"type"`
	Condition AlertCondition `gorm:"not null" json:"condition"`
	Value     float64        `gorm:"not null" json:"value"`
	Active    bool           `gorm:"not null;default:true" json:"active"`
	Message   string         `json:"message,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// AlertTrigger is the ephemeral result of a rule firing. It is handed to the
// notification dispatcher and published on the event bus, never persisted.
type AlertTrigger struct {
	Alert        Alert     `json:"alert"`
	CurrentValue float64   `json:"current_value"`
	TriggeredAt  time.Time `json:"triggered_at"`
	Message      string    `json:"message"`
}
