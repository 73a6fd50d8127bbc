// Package file provides a trace sink that writes one JSON document per
// decision to a directory on disk.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eras-labs/consilium/internal/core/domain"
	"github.com/eras-labs/consilium/internal/core/ports/driven"
)

// Ensure Sink implements the interface.
var _ driven.TraceSink = (*Sink)(nil)

// Sink writes decision traces as pretty-printed JSON files named after
// the trace ID, e.g. logs/traces/trace_20250114_153210_a1b2c3d4.json.
type Sink struct {
	dir string
}

// NewSink creates the trace directory if needed and returns a sink
// writing into it.
func NewSink(dir string) (*Sink, error) {
	if dir == "" {
		dir = filepath.Join("logs", "traces")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create trace dir: %w", err)
	}
	return &Sink{dir: dir}, nil
}

// Write persists a single decision trace.
func (s *Sink) Write(ctx context.Context, trace *domain.DecisionTrace) error {
	if trace == nil || trace.TraceID == "" {
		return fmt.Errorf("trace is missing an ID: %w", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(trace, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}

	path := filepath.Join(s.dir, trace.TraceID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}

// Dir returns the directory traces are written to.
func (s *Sink) Dir() string {
	return s.dir
}

// Close is a no-op; files are closed as they are written.
func (s *Sink) Close() error {
	return nil
}
