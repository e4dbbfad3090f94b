// internal/workers/assistant/route-escalation/config.go
package routeescalation

import "time"

type Config struct {
	// Enabled is the concierge escalation feature flag.
	Enabled bool
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
