package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The body column is TEXT rather than JSONB so documents come back byte-for-byte.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	name       TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// querier is the subset of *pgxpool.Pool the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps documents as rows of a PostgreSQL table.
type PostgresStore struct {
	q     querier
	close func()
}

// NewPostgresStore takes ownership of pool and ensures the schema exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := newPostgresStore(pool, pool.Close)
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newPostgresStore(q querier, closeFn func()) *PostgresStore {
	if closeFn == nil {
		closeFn = func() {}
	}
	return &PostgresStore{q: q, close: closeFn}
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var body string
	err := s.q.QueryRow(ctx, `SELECT body FROM documents WHERE name = $1`, name).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return []byte(body), nil
}

func (s *PostgresStore) Write(ctx context.Context, name string, body []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	const query = `
	INSERT INTO documents (name, body, updated_at) VALUES ($1, $2, now())
	ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`

	if _, err := s.q.Exec(ctx, query, name, string(body)); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (s *PostgresStore) Backend() string { return "postgres" }

func (s *PostgresStore) Close() error {
	s.close()
	return nil
}
