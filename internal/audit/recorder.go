// Package audit keeps the append-only record of every query outcome.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyperjump/clausegate/internal/models"
)

// Recorder appends audit records and lists them in write order.
type Recorder interface {
	Record(ctx context.Context, rec models.AuditRecord) error
	List(ctx context.Context) ([]models.AuditRecord, error)
}

// JSONLRecorder stores one JSON object per line in an append-only file.
type JSONLRecorder struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

// NewJSONLRecorder opens (creating if needed) the log at path for appending.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create audit log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return &JSONLRecorder{path: path, f: f}, nil
}

// Path returns the log file path.
func (r *JSONLRecorder) Path() string {
	return r.path
}

// Record appends rec as a single line. The line is written with one Write call under
// the mutex, so concurrent records never interleave.
func (r *JSONLRecorder) Record(ctx context.Context, rec models.AuditRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return fmt.Errorf("audit log closed")
	}
	if _, err := r.f.Write(line); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// List reads every record in write order. A missing file is an empty log.
func (r *JSONLRecorder) List(ctx context.Context) ([]models.AuditRecord, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.AuditRecord{}, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	records := []models.AuditRecord{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec models.AuditRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse audit record: %w", err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return records, nil
}

// Close closes the append handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
