// Package audit writes the append-only audit and prompt logs.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// appendFile serializes whole-line writes to a file opened in append mode.
type appendFile struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

func openAppend(path string) (*appendFile, error) {
	if path == "" {
		return nil, fmt.Errorf("audit: empty log path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("audit mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit open: %w", err)
	}
	return &appendFile{f: f, path: path}, nil
}

// Write writes p in one call. Callers pass complete lines.
func (a *appendFile) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f == nil {
		return 0, os.ErrClosed
	}
	return a.f.Write(p)
}

func (a *appendFile) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f == nil {
		return nil
	}
	err := a.f.Close()
	a.f = nil
	return err
}
