package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"paceline/internal/domain/model"
)

// SQLiteStore implements Store on an embedded SQLite database. The
// current state lives in load_states (one row per athlete) and the
// audit trail in load_history (append-only, one row per athlete-day).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// ensures the schema exists.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS load_states (
  athlete_id TEXT PRIMARY KEY,
  as_of_date TEXT NOT NULL,
  chronic_load REAL NOT NULL,
  acute_load REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS load_history (
  athlete_id TEXT NOT NULL,
  date TEXT NOT NULL,
  chronic_load REAL NOT NULL,
  acute_load REAL NOT NULL,
  PRIMARY KEY (athlete_id, date)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create load tables: %w", err)
	}
	return nil
}

// GetLoadState loads the current state and full history for an athlete.
func (s *SQLiteStore) GetLoadState(ctx context.Context, athleteID string) (model.LoadState, error) {
	const current = `
SELECT as_of_date, chronic_load, acute_load FROM load_states WHERE athlete_id = ?`

	var asOf string
	state := model.LoadState{AthleteID: athleteID}
	err := s.db.QueryRowContext(ctx, current, athleteID).Scan(&asOf, &state.ChronicLoad, &state.AcuteLoad)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LoadState{}, fmt.Errorf("athlete %s: %w", athleteID, ErrNotFound)
	}
	if err != nil {
		return model.LoadState{}, fmt.Errorf("query load state: %w", err)
	}
	if state.AsOfDate, err = parseDate(asOf); err != nil {
		return model.LoadState{}, err
	}

	const history = `
SELECT date, chronic_load, acute_load FROM load_history WHERE athlete_id = ? ORDER BY date`

	rows, err := s.db.QueryContext(ctx, history, athleteID)
	if err != nil {
		return model.LoadState{}, fmt.Errorf("query load history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var date string
		var point model.LoadPoint
		if err := rows.Scan(&date, &point.ChronicLoad, &point.AcuteLoad); err != nil {
			return model.LoadState{}, fmt.Errorf("scan load history: %w", err)
		}
		if point.Date, err = parseDate(date); err != nil {
			return model.LoadState{}, err
		}
		state.History = append(state.History, point)
	}
	if err := rows.Err(); err != nil {
		return model.LoadState{}, fmt.Errorf("iterate load history: %w", err)
	}
	return state, nil
}

// PutLoadState upserts the current row and appends new history points.
// Existing history rows are left untouched so the log stays append-only.
func (s *SQLiteStore) PutLoadState(ctx context.Context, state model.LoadState) error {
	if state.AthleteID == "" {
		return fmt.Errorf("%w: empty athlete id", ErrInvalidState)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `
INSERT INTO load_states (athlete_id, as_of_date, chronic_load, acute_load)
VALUES (?, ?, ?, ?)
ON CONFLICT(athlete_id) DO UPDATE SET
  as_of_date=excluded.as_of_date,
  chronic_load=excluded.chronic_load,
  acute_load=excluded.acute_load;
`
	if _, err := tx.ExecContext(ctx, upsert,
		state.AthleteID, formatDate(state.AsOfDate), state.ChronicLoad, state.AcuteLoad); err != nil {
		return fmt.Errorf("upsert load state: %w", err)
	}

	const insert = `
INSERT INTO load_history (athlete_id, date, chronic_load, acute_load)
VALUES (?, ?, ?, ?)
ON CONFLICT(athlete_id, date) DO NOTHING;
`
	for _, point := range state.History {
		if _, err := tx.ExecContext(ctx, insert,
			state.AthleteID, formatDate(point.Date), point.ChronicLoad, point.AcuteLoad); err != nil {
			return fmt.Errorf("append load history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return t, nil
}
