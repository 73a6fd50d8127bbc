// Package sqlite provides a trace sink backed by a SQLite database,
// suitable for querying decision history with plain SQL.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/eras-labs/consilium/internal/core/domain"
	"github.com/eras-labs/consilium/internal/core/ports/driven"
)

// Ensure Sink implements the interface.
var _ driven.TraceSink = (*Sink)(nil)

// Sink stores decision traces in a SQLite database. Each row carries
// the headline fields as columns for querying plus the full trace as a
// JSON blob.
type Sink struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *rand.Rand
}

// NewSink opens or creates a SQLite database at the given path.
func NewSink(dbPath string) (*Sink, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Sink{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Sink) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Sink) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS traces (
		id              TEXT PRIMARY KEY,
		trace_id        TEXT NOT NULL UNIQUE,
		created_at      TEXT NOT NULL,
		scenario        TEXT NOT NULL,
		recommendation  TEXT NOT NULL,
		backend         TEXT,
		latency_ms      INTEGER NOT NULL DEFAULT 0,
		hits_count      INTEGER NOT NULL DEFAULT 0,
		citations_count INTEGER NOT NULL DEFAULT 0,
		errors          TEXT,
		payload         TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_traces_created ON traces(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_traces_scenario ON traces(scenario);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Write persists a single decision trace.
func (s *Sink) Write(ctx context.Context, trace *domain.DecisionTrace) error {
	if trace == nil || trace.TraceID == "" {
		return fmt.Errorf("trace is missing an ID: %w", domain.ErrInvalidInput)
	}

	payload, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}

	var errorsJSON *string
	if len(trace.Response.Metrics.Errors) > 0 {
		b, _ := json.Marshal(trace.Response.Metrics.Errors)
		str := string(b)
		errorsJSON = &str
	}

	createdAt := trace.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO traces (id, trace_id, created_at, scenario, recommendation, backend, latency_ms, hits_count, citations_count, errors, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.newID(),
		trace.TraceID,
		createdAt,
		string(trace.Scenario),
		trace.Response.FinalRecommendation,
		trace.Response.Metrics.BackendName,
		trace.Response.Metrics.LatencyMS,
		trace.Response.Metrics.HitsCount,
		trace.Response.Metrics.CitationsCount,
		errorsJSON,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert trace: %w", err)
	}
	return nil
}

// Recent returns up to limit traces ordered newest first.
func (s *Sink) Recent(ctx context.Context, limit int) ([]domain.DecisionTrace, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM traces ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query traces: %w", err)
	}
	defer rows.Close()

	var traces []domain.DecisionTrace
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		var trace domain.DecisionTrace
		if err := json.Unmarshal([]byte(payload), &trace); err != nil {
			return nil, fmt.Errorf("decode trace: %w", err)
		}
		traces = append(traces, trace)
	}
	return traces, rows.Err()
}

// Close releases the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}
