package common

import (
	"regexp"
	"testing"
	"time"
)

func TestGenerateRunID(t *testing.T) {
	before := time.Now()

	runID := GenerateRunID()

	after := time.Now()

	if runID == "" {
		t.Error("Expected non-empty runID, got empty string")
	}

	matched, err := regexp.MatchString(`^\d{14}$`, runID)
	if err != nil {
		t.Fatalf("Error in regex matching: %v", err)
	}
	if !matched {
		t.Errorf("RunID %s does not match the expected format YYYYMMDDHHMMSS", runID)
	}

	parsedTime, err := time.Parse("20060102150405", runID)
	if err != nil {
		t.Fatalf("Could not parse runID %s back to time: %v", runID, err)
	}

	beforeTruncated := before.Truncate(time.Second)
	afterTruncated := after.Truncate(time.Second).Add(time.Second)

	if parsedTime.Before(beforeTruncated) || parsedTime.After(afterTruncated) {
		t.Errorf("Parsed time %v is not within the expected time range [%v, %v]",
			parsedTime, beforeTruncated, afterTruncated)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.MediaLimit != DefaultMediaLimit {
		t.Errorf("Expected MediaLimit %d, got %d", DefaultMediaLimit, cfg.MediaLimit)
	}
	if cfg.BatchSize != DefaultBatchSize {
		t.Errorf("Expected BatchSize %d, got %d", DefaultBatchSize, cfg.BatchSize)
	}
	if cfg.RequestTimeout != DefaultTimeout {
		t.Errorf("Expected RequestTimeout %v, got %v", DefaultTimeout, cfg.RequestTimeout)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("Expected ListenAddr %q, got %q", DefaultListenAddr, cfg.ListenAddr)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{MediaLimit: 25, BatchSize: 10}
	cfg.ApplyDefaults()

	if cfg.MediaLimit != 25 {
		t.Errorf("Expected MediaLimit 25, got %d", cfg.MediaLimit)
	}
	if cfg.BatchSize != 10 {
		t.Errorf("Expected BatchSize 10, got %d", cfg.BatchSize)
	}
}
