package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// ReferenceTable is a published copy of a delimited reference table
type ReferenceTable struct {
	Name      string    `db:"name"`
	Body      string    `db:"body"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetReferenceTable retrieves a reference table by name
func (s *Store) GetReferenceTable(ctx context.Context, name string) (*ReferenceTable, error) {
	var table ReferenceTable
	err := s.db.GetContext(ctx, &table,
		"SELECT name, body, updated_at FROM reference_tables WHERE name = $1", name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reference table not found: %s", name)
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// FetchTable returns the body of a reference table
func (s *Store) FetchTable(ctx context.Context, name string) (string, error) {
	table, err := s.GetReferenceTable(ctx, name)
	if err != nil {
		return "", err
	}
	return table.Body, nil
}

// PutReferenceTable publishes a new body for a reference table
func (s *Store) PutReferenceTable(ctx context.Context, name, body string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reference_tables (name, body, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`,
		name, body)
	return err
}

const referenceTablesSchema = `
CREATE TABLE IF NOT EXISTS reference_tables (
	name       TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the reference_tables table when missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, referenceTablesSchema)
	return err
}
