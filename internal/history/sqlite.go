package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/logfields"
)

// MemoryPath opens a private in-memory ledger.
const MemoryPath = ":memory:"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the ledger at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, errors.HistoryError("could not create history directory").
				WithCause(err).
				WithContext(logfields.KeyPath, dbPath).
				Build()
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.HistoryError("could not open history database").
			WithCause(err).
			WithContext(logfields.KeyPath, dbPath).
			Build()
	}
	// ":memory:" databases exist per connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.HistoryError("failed to initialize history schema").WithCause(err).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		composition_id TEXT NOT NULL,
		key TEXT NOT NULL,
		name TEXT NOT NULL,
		version TEXT NOT NULL,
		result TEXT NOT NULL,
		executable TEXT,
		error TEXT,
		started_at INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_key ON builds(key);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Record(ctx context.Context, r Record) error {
	if r.BuildID == "" {
		r.BuildID = NewBuildID()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, composition_id, key, name, version, result, executable, error, started_at, duration_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BuildID, r.CompositionID, r.Key, r.Name, r.Version, string(r.Result),
		r.Executable, r.Error, r.StartedAt.UnixNano(), int64(r.Duration),
	)
	if err != nil {
		return errors.HistoryError("failed to record build").
			WithCause(err).
			WithContext(logfields.KeyBuildID, r.BuildID).
			Build()
	}
	return nil
}

const selectRecords = `SELECT build_id, composition_id, key, name, version, result, executable, error, started_at, duration_ns FROM builds`

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecords+` ORDER BY seq DESC LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, errors.HistoryError("failed to query builds").WithCause(err).Build()
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func (s *SQLiteStore) ByKey(ctx context.Context, key string, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecords+` WHERE key = ? ORDER BY seq DESC LIMIT ?`, key, normalizeLimit(limit))
	if err != nil {
		return nil, errors.HistoryError("failed to query builds").
			WithCause(err).
			WithContext(logfields.KeyKey, key).
			Build()
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var (
			r          Record
			result     string
			executable sql.NullString
			errText    sql.NullString
			startedAt  int64
			durationNS int64
		)
		if err := rows.Scan(&r.BuildID, &r.CompositionID, &r.Key, &r.Name, &r.Version, &result,
			&executable, &errText, &startedAt, &durationNS); err != nil {
			return nil, errors.HistoryError("failed to scan build row").WithCause(err).Build()
		}
		r.Result = Result(result)
		r.Executable = executable.String
		r.Error = errText.String
		r.StartedAt = time.Unix(0, startedAt)
		r.Duration = time.Duration(durationNS)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.HistoryError("failed to iterate build rows").WithCause(err).Build()
	}
	return out, nil
}

// normalizeLimit maps non-positive limits to "everything".
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
