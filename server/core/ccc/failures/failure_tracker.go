package failures

import (
	"sync"
	"time"
)

// FailureRecord represents a single failed publish attempt
type FailureRecord struct {
	Account   string
	Reason    string
	Timestamp time.Time
}

// FailureTracker counts publish failures per account inside a sliding time window
type FailureTracker interface {
	// RecordFailure records a failure and returns the account's failure count within the time window
	RecordFailure(account string, reason string, timestamp time.Time) int
	// ShouldAlert returns true if the failure count reached the alert threshold
	ShouldAlert(failureCount int) bool
	// Reset forgets all failures recorded for the account, e.g. after a successful publish
	Reset(account string)
}

// AlertSettings holds configuration for failure alerting
type AlertSettings struct {
	Threshold  int           // Number of failures that trigger an alert (0 to disable)
	TimeWindow time.Duration // Time window for counting failures
}

type nopFailureTracker struct{}

var NopFailureTracker FailureTracker = &nopFailureTracker{}

func (n *nopFailureTracker) RecordFailure(account string, reason string, timestamp time.Time) int {
	return 0
}

func (n *nopFailureTracker) ShouldAlert(failureCount int) bool {
	return false
}

func (n *nopFailureTracker) Reset(account string) {}

// memoryFailureTracker implements FailureTracker using in-memory storage
type memoryFailureTracker struct {
	settings AlertSettings
	failures []FailureRecord
	mu       sync.Mutex
}

// NewMemoryFailureTracker creates a new in-memory failure tracker
func NewMemoryFailureTracker(settings AlertSettings) FailureTracker {
	return &memoryFailureTracker{
		settings: settings,
		failures: make([]FailureRecord, 0),
	}
}

func (t *memoryFailureTracker) ShouldAlert(failureCount int) bool {
	return t.settings.Threshold > 0 && failureCount >= t.settings.Threshold
}

func (t *memoryFailureTracker) RecordFailure(account string, reason string, timestamp time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failures = append(t.failures, FailureRecord{
		Account:   account,
		Reason:    reason,
		Timestamp: timestamp,
	})

	// Drop records that fell out of the window
	cutoff := timestamp.Add(-t.settings.TimeWindow)
	valid := make([]FailureRecord, 0, len(t.failures))
	for _, failure := range t.failures {
		if !failure.Timestamp.Before(cutoff) {
			valid = append(valid, failure)
		}
	}
	t.failures = valid

	count := 0
	for _, failure := range t.failures {
		if failure.Account == account {
			count++
		}
	}

	return count
}

func (t *memoryFailureTracker) Reset(account string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.failures[:0]
	for _, failure := range t.failures {
		if failure.Account != account {
			kept = append(kept, failure)
		}
	}
	t.failures = kept
}
