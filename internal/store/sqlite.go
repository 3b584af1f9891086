package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"

	"github.com/chris-regnier/warden/internal/sarif"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	sarif        BLOB NOT NULL,
	result_count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS verdicts (
	run_id   TEXT PRIMARY KEY REFERENCES runs(id) ON DELETE CASCADE,
	decision TEXT NOT NULL,
	verdict  BLOB NOT NULL
);`

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps runs and verdicts in a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", buildConnectionString(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func buildConnectionString(path string) string {
	if path == ":memory:" {
		return "file::memory:?_foreign_keys=1"
	}
	params := "?mode=rwc&_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=1"
	if runtime.GOOS == "darwin" {
		params += "&_fullfsync=1"
	}
	return "file:" + path + params
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) WriteSARIF(ctx context.Context, doc *sarif.Log) (string, error) {
	ctx, span := storeTracer.Start(ctx, "write sarif")
	defer span.End()

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fail(span, err)
	}
	id := newRunID()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, sarif, result_count) VALUES (?, ?, ?)`,
		id, data, resultCount(doc)); err != nil {
		return "", fail(span, fmt.Errorf("failed to insert run: %w", err))
	}

	span.SetAttributes(
		attribute.String("warden.store.id", id),
		attribute.Int("warden.store.result_count", resultCount(doc)),
	)
	return id, nil
}

func (s *SQLiteStore) WriteVerdict(ctx context.Context, runID string, verdict *Verdict) error {
	ctx, span := storeTracer.Start(ctx, "write verdict")
	defer span.End()

	data, err := json.Marshal(verdict)
	if err != nil {
		return fail(span, err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO verdicts (run_id, decision, verdict)
		 SELECT id, ?, ? FROM runs WHERE id = ?
		 ON CONFLICT(run_id) DO UPDATE SET decision = excluded.decision, verdict = excluded.verdict`,
		verdict.Decision, data, runID)
	if err != nil {
		return fail(span, fmt.Errorf("failed to write verdict: %w", err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fail(span, fmt.Errorf("run %s: %w", runID, ErrNotFound))
	}

	span.SetAttributes(
		attribute.String("warden.store.id", runID),
		attribute.String("warden.decision", verdict.Decision),
	)
	return nil
}

func (s *SQLiteStore) readBlob(ctx context.Context, query, id string, v any) error {
	var data []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *SQLiteStore) ReadSARIF(ctx context.Context, id string) (*sarif.Log, error) {
	var log sarif.Log
	if err := s.readBlob(ctx, `SELECT sarif FROM runs WHERE id = ?`, id, &log); err != nil {
		return nil, fmt.Errorf("reading run %s: %w", id, err)
	}
	return &log, nil
}

func (s *SQLiteStore) ReadVerdict(ctx context.Context, runID string) (*Verdict, error) {
	var v Verdict
	if err := s.readBlob(ctx, `SELECT verdict FROM verdicts WHERE run_id = ?`, runID, &v); err != nil {
		return nil, fmt.Errorf("reading verdict %s: %w", runID, err)
	}
	return &v, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Counts reports how many runs ended in each decision.
func (s *SQLiteStore) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT decision, COUNT(*) FROM verdicts GROUP BY decision`)
	if err != nil {
		return nil, fmt.Errorf("failed to count verdicts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var decision string
		var n int
		if err := rows.Scan(&decision, &n); err != nil {
			return nil, err
		}
		out[decision] = n
	}
	return out, rows.Err()
}
