package sse

import "time"

// Config holds timing for notification streams
type Config struct {
	// KeepAliveInterval is how often a comment line is sent to hold proxies open
	KeepAliveInterval time.Duration

	// PollInterval is how often the unread count is re-read
	PollInterval time.Duration
}

// DefaultConfig returns the default stream configuration
func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 15 * time.Second,
		PollInterval:      10 * time.Second,
	}
}
