package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/bea-cli/pkg/bea"
	"github.com/sells-group/bea-cli/pkg/bea/codes"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	dataset         TEXT NOT NULL,
	params          TEXT NOT NULL,
	statistic       TEXT NOT NULL DEFAULT '',
	unit_of_measure TEXT NOT NULL DEFAULT '',
	public_table    TEXT NOT NULL DEFAULT '',
	row_count       INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS observations (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	seq         INTEGER NOT NULL,
	time_period TEXT NOT NULL,
	data_value  TEXT NOT NULL,
	value       REAL,
	unit        TEXT NOT NULL DEFAULT '',
	unit_mult   INTEGER NOT NULL DEFAULT 0,
	note_ref    TEXT NOT NULL DEFAULT '',
	fields      TEXT,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS response_cache (
	cache_key  TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_observations_time_period ON observations(time_period);
CREATE INDEX IF NOT EXISTS idx_response_cache_expires_at ON response_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveData stores the observations of one GetData call under a new run.
func (s *SQLiteStore) SaveData(ctx context.Context, dataset codes.Dataset, opts bea.Options, results *bea.DataResults) (*Run, error) {
	if results == nil {
		return nil, eris.New("sqlite: save data: nil results")
	}

	params := make(map[string]string)
	for _, p := range opts.Params() {
		params[p.Key] = p.Value
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal params")
	}

	run := &Run{
		ID:            uuid.New().String(),
		Dataset:       dataset,
		Params:        params,
		Statistic:     results.Statistic,
		UnitOfMeasure: results.UnitOfMeasure,
		PublicTable:   results.PublicTable,
		Rows:          len(results.Data),
		CreatedAt:     time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, dataset, params, statistic, unit_of_measure, public_table, row_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(dataset), string(paramsJSON), run.Statistic, run.UnitOfMeasure, run.PublicTable, run.Rows, run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO observations (run_id, seq, time_period, data_value, value, unit, unit_mult, note_ref, fields)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare observation insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, d := range results.Data {
		var value sql.NullFloat64
		if d.Value != nil {
			value = sql.NullFloat64{Float64: *d.Value, Valid: true}
		}
		var fields sql.NullString
		if len(d.Fields) > 0 {
			b, err := json.Marshal(d.Fields)
			if err != nil {
				return nil, eris.Wrap(err, "sqlite: marshal fields")
			}
			fields = sql.NullString{String: string(b), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, d.TimePeriod, d.DataValue, value, d.Unit, d.UnitMult, d.NoteRef, fields); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert observation %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit")
	}
	return run, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, dataset, params, statistic, unit_of_measure, public_table, row_count, created_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, dataset, params, statistic, unit_of_measure, public_table, row_count, created_at FROM runs WHERE 1=1`
	var args []any

	if filter.Dataset != "" {
		query += ` AND dataset = ?`
		args = append(args, string(filter.Dataset))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// Observations returns the rows of a run in their original order.
func (s *SQLiteStore) Observations(ctx context.Context, runID string) ([]bea.Datum, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT time_period, data_value, value, unit, unit_mult, note_ref, fields
		 FROM observations WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list observations %s", runID)
	}
	defer rows.Close()

	var out []bea.Datum
	for rows.Next() {
		var (
			d      bea.Datum
			value  sql.NullFloat64
			fields sql.NullString
		)
		if err := rows.Scan(&d.TimePeriod, &d.DataValue, &value, &d.Unit, &d.UnitMult, &d.NoteRef, &fields); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan observation")
		}
		if value.Valid {
			v := value.Float64
			d.Value = &v
		}
		if fields.Valid {
			if err := json.Unmarshal([]byte(fields.String), &d.Fields); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal fields")
			}
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list observations iterate")
}

// DeleteRun removes a run and its observations.
func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM observations WHERE run_id = ?`, runID); err != nil {
		return eris.Wrapf(err, "sqlite: delete observations %s", runID)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete run %s", runID)
	}
	if err := checkRowsAffected(res, "run", runID); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// GetCachedResponse returns a cached body, or nil when absent or expired.
func (s *SQLiteStore) GetCachedResponse(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM response_cache WHERE cache_key = ? AND expires_at > ?`,
		key, time.Now().UTC(),
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached response")
	}
	return body, nil
}

func (s *SQLiteStore) SetCachedResponse(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO response_cache (cache_key, body, fetched_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		key, body, now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached response")
}

func (s *SQLiteStore) DeleteExpiredResponses(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM response_cache WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired responses")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var (
		r          Run
		dataset    string
		paramsJSON string
	)
	err := row.Scan(&r.ID, &dataset, &paramsJSON, &r.Statistic, &r.UnitOfMeasure, &r.PublicTable, &r.Rows, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	r.Dataset = codes.Dataset(dataset)
	if err := json.Unmarshal([]byte(paramsJSON), &r.Params); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal params")
	}
	return &r, nil
}
