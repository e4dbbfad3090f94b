// internal/workers/assistant/notify-emergency-escalation/config.go
package notifyemergencyescalation

import "time"

type Config struct {
	// Enabled is false when SNS notifications are switched off.
	Enabled      bool
	TopicARN     string
	DedupeWindow time.Duration
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Enabled:      false,
		DedupeWindow: 15 * time.Minute,
		Timeout:      10 * time.Second,
	}
}
