package filemanagement

import (
	"os"
	"sync"

	"github.com/soundpost/soundpost/server/core/ccc/logging"
)

// FileTracker owns the temporary files created while serving one request.
type FileTracker interface {
	// Register records ownership of a file that must be removed when the request ends
	Register(path string)

	// ReleaseAll removes every registered file. Failures are logged, never returned.
	ReleaseAll()
}

// RequestFileTracker implements FileTracker for the local filesystem.
// A tracker belongs to exactly one request and must not be reused.
type RequestFileTracker struct {
	logger logging.Logger
	paths  []string
	mu     sync.Mutex
}

// NewRequestFileTracker creates an empty tracker
func NewRequestFileTracker(logger logging.Logger) *RequestFileTracker {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &RequestFileTracker{
		logger: logger,
	}
}

// Register records ownership of path. Registering the same path twice is harmless.
func (t *RequestFileTracker) Register(path string) {
	if path == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range t.paths {
		if p == path {
			return
		}
	}
	t.paths = append(t.paths, path)
	t.logger.Debug("Tracking temporary file", "path", path)
}

// ReleaseAll removes every registered file and forgets it. Calling it on an empty
// tracker does nothing.
func (t *RequestFileTracker) ReleaseAll() {
	t.mu.Lock()
	paths := t.paths
	t.paths = nil
	t.mu.Unlock()

	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			t.logger.Error("Failed to remove temporary file", "path", path, "error", err)
			continue
		}
		t.logger.Debug("Removed temporary file", "path", path)
	}
}

// Tracked returns the currently registered paths in registration order.
func (t *RequestFileTracker) Tracked() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, len(t.paths))
	copy(out, t.paths)
	return out
}
