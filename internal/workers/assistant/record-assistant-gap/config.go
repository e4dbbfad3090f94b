// internal/workers/assistant/record-assistant-gap/config.go
package recordassistantgap

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
