package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/voxlingua/voxlingua/internal/model"
	"github.com/voxlingua/voxlingua/internal/store"
)

const ddl = `
CREATE TABLE IF NOT EXISTS usage_records (
    user_id      TEXT NOT NULL,
    usage_date   TEXT NOT NULL,
    used_seconds INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, usage_date)
);

CREATE TABLE IF NOT EXISTS situations (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    theme      TEXT NOT NULL,
    prompt     TEXT NOT NULL,
    links      TEXT NOT NULL DEFAULT '[]',
    accent     TEXT NOT NULL DEFAULT '',
    ambience   TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP NOT NULL
);
`

// Open opens (or creates) a SQLite database at the given path, enables WAL
// journal mode and applies the schema. Pass ":memory:" for an in-process
// throwaway database (used by tests).
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
	}
	return db, nil
}

// New opens the database at path and returns a store seeded with the default
// situation catalogue when the situations table is empty.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	s := &sqliteStore{db: db}
	if err := s.seedSituations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wires a store over an existing connection (used by tests and the factory).
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Usage() store.Usage           { return &usage{db: s.db} }
func (s *sqliteStore) Situations() store.Situations { return &situations{db: s.db} }

func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB exposes the underlying connection (local-only use case).
func (s *sqliteStore) DB() *sql.DB { return s.db }

func (s *sqliteStore) seedSituations(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM situations`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, sit := range model.SeedSituations() {
		links, _ := json.Marshal(sit.Links)
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO situations (id, title, theme, prompt, links, accent, ambience, updated_at) VALUES (?,?,?,?,?,?,?,?)`,
			sit.ID, sit.Title, sit.Theme, sit.Prompt, string(links), sit.Accent, sit.Ambience, now)
		if err != nil {
			return err
		}
	}
	return nil
}

// --- Usage ---

type usage struct{ db *sql.DB }

func (u *usage) Get(ctx context.Context, userID, date string) (int, error) {
	var used int
	err := u.db.QueryRowContext(ctx,
		`SELECT used_seconds FROM usage_records WHERE user_id = ? AND usage_date = ?`,
		userID, date).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return used, nil
}

func (u *usage) Add(ctx context.Context, userID, date string, delta, cap int) (int, error) {
	// Single-statement upsert: the increment-and-cap is computed by SQLite,
	// so concurrent Adds for the same (user, day) serialize on the row.
	var used int
	err := u.db.QueryRowContext(ctx, `
        INSERT INTO usage_records (user_id, usage_date, used_seconds)
        VALUES (?, ?, min(?, ?))
        ON CONFLICT (user_id, usage_date)
        DO UPDATE SET used_seconds = min(usage_records.used_seconds + ?, ?)
        RETURNING used_seconds
    `, userID, date, delta, cap, delta, cap).Scan(&used)
	if err != nil {
		return 0, err
	}
	return used, nil
}

// --- Situations ---

type situations struct{ db *sql.DB }

func (s *situations) List(ctx context.Context) ([]*model.Situation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, theme, prompt, links, accent, ambience, updated_at FROM situations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Situation
	for rows.Next() {
		sit, err := scanSituation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sit)
	}
	return out, rows.Err()
}

func (s *situations) Get(ctx context.Context, id string) (*model.Situation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, theme, prompt, links, accent, ambience, updated_at FROM situations WHERE id = ?`, id)
	sit, err := scanSituation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sit, nil
}

func (s *situations) Update(ctx context.Context, id string, req model.UpdateSituationRequest) (*model.Situation, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := model.MergeSituation(*current, req)
	links, _ := json.Marshal(merged.Links)
	_, err = s.db.ExecContext(ctx,
		`UPDATE situations SET title = ?, theme = ?, prompt = ?, links = ?, accent = ?, ambience = ?, updated_at = ? WHERE id = ?`,
		merged.Title, merged.Theme, merged.Prompt, string(links), merged.Accent, merged.Ambience, merged.UpdatedAt, id)
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanSituation(row rowScanner) (*model.Situation, error) {
	var sit model.Situation
	var links string
	if err := row.Scan(&sit.ID, &sit.Title, &sit.Theme, &sit.Prompt, &links, &sit.Accent, &sit.Ambience, &sit.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(links), &sit.Links); err != nil {
		return nil, fmt.Errorf("decoding links for situation %s: %w", sit.ID, err)
	}
	return &sit, nil
}
