package save

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/nathoo/tilequest/engine/instance"

	_ "modernc.org/sqlite" // SQLite driver
)

const characterSchema = `
CREATE TABLE IF NOT EXISTS characters (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    region INTEGER NOT NULL,
    data TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_characters_name ON characters(name);
`

// ErrNotFound is returned when a character is not stored.
var ErrNotFound = errors.New("character not found")

// Character is a stored player record.
type Character struct {
	ID        uuid.UUID
	Name      string
	Region    int
	Record    instance.Record
	UpdatedAt time.Time
}

// CharacterStore persists player characters between sessions.
type CharacterStore struct {
	db *sql.DB
}

// OpenCharacterStore opens or creates the database at path. Use ":memory:"
// for a private in-memory store.
func OpenCharacterStore(ctx context.Context, path string) (*CharacterStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating character store dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening character store: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, characterSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing character store: %w", err)
	}
	return &CharacterStore{db: db}, nil
}

// Close closes the database.
func (s *CharacterStore) Close() error { return s.db.Close() }

// Put inserts or replaces the record of a player.
func (s *CharacterStore) Put(ctx context.Context, region int, rec instance.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding character %s: %w", rec.Name, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO characters (id, name, region, data, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, region = excluded.region,
			data = excluded.data, updated_at = excluded.updated_at`,
		rec.ID.String(), rec.Name, region, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("storing character %s: %w", rec.Name, err)
	}
	return nil
}

// Get returns the character with id, or ErrNotFound.
func (s *CharacterStore) Get(ctx context.Context, id uuid.UUID) (Character, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, region, data, updated_at FROM characters WHERE id = ?`, id.String())
	c, err := scanCharacter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Character{}, ErrNotFound
	}
	return c, err
}

// FindByName returns the most recently updated character called name.
func (s *CharacterStore) FindByName(ctx context.Context, name string) (Character, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, region, data, updated_at FROM characters WHERE name = ? ORDER BY updated_at DESC LIMIT 1`, name)
	c, err := scanCharacter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Character{}, ErrNotFound
	}
	return c, err
}

// List returns every stored character ordered by name.
func (s *CharacterStore) List(ctx context.Context) ([]Character, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, region, data, updated_at FROM characters ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	var out []Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a character. Deleting an unknown id is not an error.
func (s *CharacterStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("deleting character %s: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCharacter(sc scanner) (Character, error) {
	var (
		c       Character
		id      string
		data    string
		updated int64
	)
	if err := sc.Scan(&id, &c.Name, &c.Region, &data, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Character{}, err
		}
		return Character{}, fmt.Errorf("reading character: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Character{}, fmt.Errorf("character id %q: %w", id, err)
	}
	c.ID = parsed
	if err := json.Unmarshal([]byte(data), &c.Record); err != nil {
		return Character{}, fmt.Errorf("decoding character %s: %w", c.Name, err)
	}
	c.UpdatedAt = time.UnixMilli(updated)
	return c, nil
}
