package model

import "fmt"

// NotificationSettings is the process-wide low-stock notification config.
type NotificationSettings struct {
	Enabled   bool   `json:"enabled"`
	Email     string `json:"email"`
	Threshold int    `json:"threshold"`
	Frequency string `json:"frequency"`
}

// Notification frequencies.
const (
	FrequencyImmediate = "immediate"
	FrequencyDaily     = "daily"
	FrequencyWeekly    = "weekly"
)

// MaxNotifyThreshold bounds the severity threshold percentage.
const MaxNotifyThreshold = 50

// Validate checks threshold bounds and the frequency value.
func (s NotificationSettings) Validate() error {
	if s.Threshold < 0 || s.Threshold > MaxNotifyThreshold {
		return fmt.Errorf("threshold must be between 0 and %d", MaxNotifyThreshold)
	}
	switch s.Frequency {
	case FrequencyImmediate, FrequencyDaily, FrequencyWeekly:
	default:
		return fmt.Errorf("frequency must be immediate, daily, or weekly")
	}
	if s.Enabled && s.Email == "" {
		return fmt.Errorf("email required when notifications are enabled")
	}
	return nil
}
