// Package common holds the shared configuration structure and small helpers
// used across the dashboard service.
package common

import (
	"time"
)

// Config is the resolved service configuration.
type Config struct {
	// Graph API access
	AccessToken string
	UserID      string
	APIBaseURL  string
	APIVersion  string

	// How many media items to list and how many of the most recent get
	// insight queries. When MediaLimit exceeds InsightsLimit the dashboard
	// reports the truncation in its messages.
	MediaLimit    int
	InsightsLimit int

	// Insight fan-out: per-batch size and per-request timeout.
	BatchSize      int
	RequestTimeout time.Duration

	// HTTP server
	ListenAddr string

	// Snapshot store
	StorageRoot    string
	StateStoreName string
	UseDapr        bool

	LogLevel string
}

// Defaults applied where the configuration leaves a field unset.
const (
	DefaultMediaLimit    = 100
	DefaultInsightsLimit = 50
	DefaultBatchSize     = 50
	DefaultTimeout       = 15 * time.Second
	DefaultListenAddr    = ":8080"
)

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.MediaLimit <= 0 {
		c.MediaLimit = DefaultMediaLimit
	}
	if c.InsightsLimit <= 0 {
		c.InsightsLimit = DefaultInsightsLimit
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultTimeout
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
}

// GenerateRunID generates a timestamp-based identifier for one dashboard
// build, formatted "YYYYMMDDHHMMSS".
func GenerateRunID() string {
	currentTime := time.Now()

	runID := currentTime.Format("20060102150405")

	return runID
}
