package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/okian/dilemma/internal/domain/model"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

const selectColumns = `id, generation, reason, source, output, outcome, error, steps, duration_ns, iterations, games, created_at`

// SQLiteStore archives runs in a SQLite database.
type SQLiteStore struct {
	db       *sql.DB
	settings settings
}

// NewSQLiteStore opens (or creates) the archive at path.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	dsn := path
	if path != MemoryDSN {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: a second one would see a different :memory: database
	db.SetMaxOpenConns(1)

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, settings: newSettings(opts)}, nil
}

// Save implements Store. Runs beyond the history limit are pruned, except
// the latest good one.
func (s *SQLiteStore) Save(ctx context.Context, r RunRecord) error {
	if r.ID == "" {
		return ErrMissingID
	}
	games, err := json.Marshal(r.Result)
	if err != nil {
		return fmt.Errorf("failed to encode games: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, generation, reason, source, output, outcome, error, steps, duration_ns, iterations, games, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, int64(r.Generation), r.Reason, r.Source, r.Output, r.Outcome, r.Error,
		int64(r.Steps), int64(r.Duration), r.Iterations, string(games),
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM runs
		WHERE seq NOT IN (SELECT seq FROM runs ORDER BY seq DESC LIMIT ?)
		  AND seq <> COALESCE((SELECT MAX(seq) FROM runs WHERE error = ''), -1)`,
		s.settings.historyLimit,
	)
	if err != nil {
		return fmt.Errorf("failed to prune runs: %w", err)
	}
	return tx.Commit()
}

// Latest implements Store.
func (s *SQLiteStore) Latest(ctx context.Context) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM runs ORDER BY seq DESC LIMIT 1`)
	return scanRun(row)
}

// LatestGood implements Store.
func (s *SQLiteStore) LatestGood(ctx context.Context) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM runs WHERE error = '' ORDER BY seq DESC LIMIT 1`)
	return scanRun(row)
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM runs ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunRecord, error) {
	var (
		r                      RunRecord
		gen, steps, durationNs int64
		games, createdAt       string
	)
	err := sc.Scan(&r.ID, &gen, &r.Reason, &r.Source, &r.Output, &r.Outcome, &r.Error,
		&steps, &durationNs, &r.Iterations, &games, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, ErrNotFound
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to scan run: %w", err)
	}
	r.Generation = uint64(gen)
	r.Steps = uint64(steps)
	r.Duration = time.Duration(durationNs)
	var result model.TournamentResult
	if err := json.Unmarshal([]byte(games), &result); err != nil {
		return RunRecord{}, fmt.Errorf("failed to decode games of run %s: %w", r.ID, err)
	}
	r.Result = result
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return RunRecord{}, fmt.Errorf("failed to parse created_at of run %s: %w", r.ID, err)
	}
	return r, nil
}
