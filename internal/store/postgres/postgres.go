package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

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
    links      JSONB NOT NULL DEFAULT '[]',
    accent     TEXT NOT NULL DEFAULT '',
    ambience   TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMPTZ NOT NULL
);
`

// Open opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens dsn, applies the schema and seeds the situation catalogue when
// the table is empty.
func New(dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	s := &pgStore{db: db}
	if err := s.seedSituations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB constructs a store backed directly by an existing connection.
// The caller is responsible for the schema.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Usage() store.Usage           { return &usage{db: s.db} }
func (s *pgStore) Situations() store.Situations { return &situations{db: s.db} }

func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *pgStore) seedSituations(ctx context.Context) error {
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
			`INSERT INTO situations (id, title, theme, prompt, links, accent, ambience, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
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
		`SELECT used_seconds FROM usage_records WHERE user_id = $1 AND usage_date = $2`,
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
	// Increment-and-cap in one statement; row-level locking makes concurrent
	// Adds for the same (user, day) serialize server-side.
	var used int
	err := u.db.QueryRowContext(ctx, `
        INSERT INTO usage_records (user_id, usage_date, used_seconds)
        VALUES ($1, $2, LEAST($3, $4))
        ON CONFLICT (user_id, usage_date)
        DO UPDATE SET used_seconds = LEAST(usage_records.used_seconds + $3, $4)
        RETURNING used_seconds
    `, userID, date, delta, cap).Scan(&used)
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
		`SELECT id, title, theme, prompt, links, accent, ambience, updated_at FROM situations WHERE id = $1`, id)
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
		`UPDATE situations SET title = $1, theme = $2, prompt = $3, links = $4, accent = $5, ambience = $6, updated_at = $7 WHERE id = $8`,
		merged.Title, merged.Theme, merged.Prompt, string(links), merged.Accent, merged.Ambience, merged.UpdatedAt, id)
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanSituation(row rowScanner) (*model.Situation, error) {
	var sit model.Situation
	var links []byte
	if err := row.Scan(&sit.ID, &sit.Title, &sit.Theme, &sit.Prompt, &links, &sit.Accent, &sit.Ambience, &sit.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(links, &sit.Links); err != nil {
		return nil, fmt.Errorf("decoding links for situation %s: %w", sit.ID, err)
	}
	return &sit, nil
}
