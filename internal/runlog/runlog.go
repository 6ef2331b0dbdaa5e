// Package runlog keeps a SQLite ledger of drift-correction runs so a
// corrected file can be traced back to the parameters that produced it.
package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Entry is one recorded run.
type Entry struct {
	RunID           string          `json:"run_id"`
	StartedAt       int64           `json:"started_at"`  // unix nanos
	FinishedAt      int64           `json:"finished_at"` // unix nanos
	Status          string          `json:"status"`
	Error           string          `json:"error,omitempty"`
	InputPath       string          `json:"input_path"`
	OutputPath      string          `json:"output_path"`
	Format          string          `json:"format"`
	DriftSpeedMPS   float64         `json:"drift_speed_mps"`
	DriftBearing    float64         `json:"drift_bearing"`
	ExtraDrift      float64         `json:"extra_drift"`
	SameDirection   bool            `json:"same_direction"`
	MovingT0        *float64        `json:"moving_t0,omitempty"` // nil when the pass could not be established
	MovingT1        *float64        `json:"moving_t1,omitempty"`
	ReferenceT0     float64         `json:"reference_t0"`
	ReferenceT1     float64         `json:"reference_t1"`
	Records         int             `json:"records"`
	SkippedLines    int             `json:"skipped_lines"`
	MinDeltaT       *float64        `json:"min_delta_t,omitempty"`
	MaxDeltaT       *float64        `json:"max_delta_t,omitempty"`
	MaxDisplacement *float64        `json:"max_displacement,omitempty"`
	ParamsJSON      json.RawMessage `json:"params_json,omitempty"`
}

// Duration returns the wall-clock run time.
func (e *Entry) Duration() time.Duration {
	return time.Duration(e.FinishedAt - e.StartedAt)
}

// Store persists Entries.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run log %s: %w", path, err)
	}

	// Apply essential PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply run log schema: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing database; the schema must already be applied.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert persists e. If RunID is empty, a UUID is generated; if StartedAt
// is zero, the current time is used.
func (s *Store) Insert(ctx context.Context, e *Entry) error {
	if e.RunID == "" {
		e.RunID = uuid.New().String()
	}
	if e.StartedAt == 0 {
		e.StartedAt = time.Now().UnixNano()
	}
	if e.FinishedAt == 0 {
		e.FinishedAt = e.StartedAt
	}

	var params interface{}
	if len(e.ParamsJSON) > 0 {
		params = string(e.ParamsJSON)
	}
	var errText interface{}
	if e.Error != "" {
		errText = e.Error
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drift_runs (
			run_id, started_at, finished_at, status, error,
			input_path, output_path, format,
			drift_speed_mps, drift_bearing, extra_drift, same_direction,
			moving_t0, moving_t1, reference_t0, reference_t1,
			records, skipped_lines, min_delta_t, max_delta_t, max_displacement,
			params_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.StartedAt, e.FinishedAt, e.Status, errText,
		e.InputPath, e.OutputPath, e.Format,
		e.DriftSpeedMPS, e.DriftBearing, e.ExtraDrift, e.SameDirection,
		e.MovingT0, e.MovingT1, e.ReferenceT0, e.ReferenceT1,
		e.Records, e.SkippedLines, e.MinDeltaT, e.MaxDeltaT, e.MaxDisplacement,
		params,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", e.RunID, err)
	}
	return nil
}

const selectColumns = `
	run_id, started_at, finished_at, status, error,
	input_path, output_path, format,
	drift_speed_mps, drift_bearing, extra_drift, same_direction,
	moving_t0, moving_t1, reference_t0, reference_t1,
	records, skipped_lines, min_delta_t, max_delta_t, max_displacement,
	params_json`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var errText, params sql.NullString
	var movingT0, movingT1, minDT, maxDT, maxDisp sql.NullFloat64
	if err := row.Scan(
		&e.RunID, &e.StartedAt, &e.FinishedAt, &e.Status, &errText,
		&e.InputPath, &e.OutputPath, &e.Format,
		&e.DriftSpeedMPS, &e.DriftBearing, &e.ExtraDrift, &e.SameDirection,
		&movingT0, &movingT1, &e.ReferenceT0, &e.ReferenceT1,
		&e.Records, &e.SkippedLines, &minDT, &maxDT, &maxDisp,
		&params,
	); err != nil {
		return nil, err
	}
	e.Error = errText.String
	if params.Valid {
		e.ParamsJSON = json.RawMessage(params.String)
	}
	e.MovingT0 = nullFloat(movingT0)
	e.MovingT1 = nullFloat(movingT1)
	e.MinDeltaT = nullFloat(minDT)
	e.MaxDeltaT = nullFloat(maxDT)
	e.MaxDisplacement = nullFloat(maxDisp)
	return &e, nil
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// Get returns the run with the given ID.
func (s *Store) Get(ctx context.Context, runID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM drift_runs WHERE run_id = ?`, runID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return e, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM drift_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}
