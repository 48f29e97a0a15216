package objective

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists objectives in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to databaseURL, verifies connectivity, and
// ensures the objectives table exists.
func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("objective: parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("objective: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("objective: database unreachable: %w", err)
	}

	s := &PGStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("objective: migration failed: %w", err)
	}
	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS objectives (
			digest     TEXT PRIMARY KEY,
			rank       INT NOT NULL,
			kind       TEXT NOT NULL,
			input      BYTEA NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

func (s *PGStore) Record(ctx context.Context, o Objective) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO objectives (digest, rank, kind, input, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (digest) DO NOTHING
	`, o.Digest, o.Rank, string(o.Kind), o.Input, o.Timestamp)
	if err != nil {
		return fmt.Errorf("objective: record %s: %w", o.Digest, err)
	}
	return nil
}

func (s *PGStore) List(ctx context.Context) ([]Objective, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT digest, rank, kind, input, recorded_at FROM objectives ORDER BY recorded_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("objective: list: %w", err)
	}
	defer rows.Close()

	var out []Objective
	for rows.Next() {
		var o Objective
		var kind string
		if err := rows.Scan(&o.Digest, &o.Rank, &kind, &o.Input, &o.Timestamp); err != nil {
			return nil, fmt.Errorf("objective: scan: %w", err)
		}
		o.Kind = Kind(kind)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("objective: iterate: %w", err)
	}
	return out, nil
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

var errNotFound = errors.New("objective: not found")

func (s *PGStore) Get(ctx context.Context, digest string) (Objective, error) {
	var o Objective
	var kind string
	err := s.pool.QueryRow(ctx, `
		SELECT digest, rank, kind, input, recorded_at FROM objectives WHERE digest = $1
	`, digest).Scan(&o.Digest, &o.Rank, &kind, &o.Input, &o.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return Objective{}, errNotFound
	}
	if err != nil {
		return Objective{}, fmt.Errorf("objective: get %s: %w", digest, err)
	}
	o.Kind = Kind(kind)
	return o, nil
}
