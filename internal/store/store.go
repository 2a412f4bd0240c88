package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS persona_documents (
	kind       TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	body       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, key)
)`

// Postgres stores documents in a single JSONB table.
type Postgres struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Close() {
	s.pool.Close()
}

// EnsureSchema creates the documents table if it does not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Postgres) Load(ctx context.Context, kind Kind, key string) ([]byte, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM persona_documents WHERE kind = $1 AND key = $2`,
		string(kind), key,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load %s/%s: %w", kind, key, err)
	}
	return body, nil
}

func (s *Postgres) Save(ctx context.Context, kind Kind, key string, body []byte) error {
	if err := ValidKey(key); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO persona_documents (kind, key, body, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (kind, key) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		string(kind), key, string(body),
	)
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", kind, key, err)
	}
	return nil
}

func (s *Postgres) Exists(ctx context.Context, kind Kind, key string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM persona_documents WHERE kind = $1 AND key = $2)`,
		string(kind), key,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("exists %s/%s: %w", kind, key, err)
	}
	return ok, nil
}

func (s *Postgres) List(ctx context.Context, kind Kind) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM persona_documents WHERE kind = $1 ORDER BY key`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return keys, nil
}
