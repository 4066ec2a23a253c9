package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS games (
  id             INTEGER PRIMARY KEY,
  steam_id       INTEGER,
  name           TEXT NOT NULL,
  genres         TEXT,
  steam_tags     TEXT,
  price_usd      REAL,
  date_added     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(steam_id)
);
CREATE TABLE IF NOT EXISTS candidates (
  id             INTEGER PRIMARY KEY,
  steam_id       INTEGER,
  game_name      TEXT NOT NULL,
  source         TEXT NOT NULL DEFAULT 'auto_discovery',
  justification  TEXT,
  status         TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','approved','rejected','skipped')),
  date_submitted DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(steam_id)
);
CREATE INDEX IF NOT EXISTS idx_candidates_status ON candidates(status);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// TrackedIDs returns every app id already present in either the games or the
// candidates table. Discovery excludes these before any remote lookup.
func (d *DB) TrackedIDs(ctx context.Context) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{})

	for _, q := range []string{
		"SELECT steam_id FROM games WHERE steam_id IS NOT NULL",
		"SELECT steam_id FROM candidates WHERE steam_id IS NOT NULL",
	} {
		rows, err := d.sql.QueryContext(ctx, q)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			ids[id] = struct{}{}
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	return ids, nil
}

// CandidateExists checks whether a candidate row already holds this app id.
func (d *DB) CandidateExists(ctx context.Context, appID int64) (bool, error) {
	var one int
	err := d.sql.QueryRowContext(ctx, "SELECT 1 FROM candidates WHERE steam_id = ?", appID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertCandidate writes one candidate row.
func (d *DB) InsertCandidate(ctx context.Context, c Candidate) error {
	status := c.Status
	if status == "" {
		status = "pending"
	}
	submitted := c.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now().UTC()
	}

	_, err := d.sql.ExecContext(ctx, `
INSERT INTO candidates (steam_id, game_name, source, justification, status, date_submitted)
VALUES (?, ?, ?, ?, ?, ?)`,
		c.AppID, c.Name, c.Source, c.Justification, status, submitted)
	return err
}

func (d *DB) GetStats(ctx context.Context) (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM games", &s.TrackedGames},
		{"SELECT COUNT(*) FROM candidates", &s.TotalCandidates},
		{"SELECT COUNT(*) FROM candidates WHERE status = 'pending'", &s.PendingCandidates},
		{"SELECT COUNT(*) FROM candidates WHERE source = 'auto_discovery'", &s.AutoDiscovered},
	}
	for _, q := range queries {
		if err := d.sql.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return nil, err
		}
	}

	return s, nil
}
