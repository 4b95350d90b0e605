package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openmixer/mixer/internal/match"
	"github.com/openmixer/mixer/internal/profile"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store persists profiles and match results in a SQLite database.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	linkedin_url TEXT NOT NULL UNIQUE,
	about TEXT,
	give TEXT NOT NULL,
	ask TEXT NOT NULL,
	title TEXT,
	summary TEXT,
	tags JSON,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS match_results (
	user_id TEXT PRIMARY KEY,
	response JSON NOT NULL,
	accepted INTEGER NOT NULL,
	attempts_used INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertProfile inserts the profile or replaces an existing registration
// with the same id or linkedin URL.
func (s *Store) UpsertProfile(ctx context.Context, p profile.Profile) error {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO profiles (id, name, linkedin_url, about, give, ask, title, summary, tags, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name=excluded.name, linkedin_url=excluded.linkedin_url, about=excluded.about,
	give=excluded.give, ask=excluded.ask, title=excluded.title,
	summary=excluded.summary, tags=excluded.tags, updated_at=excluded.updated_at
ON CONFLICT(linkedin_url) DO UPDATE SET
	name=excluded.name, about=excluded.about,
	give=excluded.give, ask=excluded.ask, title=excluded.title,
	summary=excluded.summary, tags=excluded.tags, updated_at=excluded.updated_at`,
		p.ID, p.Name, p.LinkedinURL, p.About, p.Give, p.Ask, p.Title, p.Summary, tags, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfile returns one profile by id.
func (s *Store) GetProfile(ctx context.Context, id string) (*profile.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, linkedin_url, about, give, ask, title, summary, tags
FROM profiles WHERE id = ?`, id)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %q: %w", id, ErrNotFound)
	}
	return p, err
}

// ListProfiles returns all registered profiles in registration order.
func (s *Store) ListProfiles(ctx context.Context) ([]profile.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, linkedin_url, about, give, ask, title, summary, tags
FROM profiles ORDER BY updated_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []profile.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*profile.Profile, error) {
	var p profile.Profile
	var tags []byte
	if err := row.Scan(&p.ID, &p.Name, &p.LinkedinURL, &p.About, &p.Give, &p.Ask, &p.Title, &p.Summary, &tags); err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &p.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	return &p, nil
}

// SaveMatchResult stores the formatted response for a user, replacing any
// previous run.
func (s *Store) SaveMatchResult(ctx context.Context, userID string, resp *match.Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal match response: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO match_results (user_id, response, accepted, attempts_used, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	response=excluded.response, accepted=excluded.accepted,
	attempts_used=excluded.attempts_used, created_at=excluded.created_at`,
		userID, payload, resp.Accepted, resp.AttemptsUsed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save match result: %w", err)
	}
	return nil
}

// GetMatchResult returns the stored response for a user.
func (s *Store) GetMatchResult(ctx context.Context, userID string) (*match.Response, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT response FROM match_results WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match result for %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get match result: %w", err)
	}

	var resp match.Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal match response: %w", err)
	}
	return &resp, nil
}
