// Package postgres keeps client session state in PostgreSQL so sessions
// survive a restart of the web process. Refresh coordination stays in the
// process that owns the sid, so running several processes needs sid-sticky
// routing in front of them.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

// Open connects and makes sure the client_storage table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	s := NewStore(pool)
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS client_storage(
		  namespace  TEXT NOT NULL,
		  key        TEXT NOT NULL,
		  value      TEXT NOT NULL,
		  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		  PRIMARY KEY (namespace, key)
		)`)
	return err
}

func (s *Store) Load(ctx context.Context, namespace string) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM client_storage WHERE namespace = $1`, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *Store) Save(ctx context.Context, namespace string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for k, v := range values {
		batch.Queue(`
			INSERT INTO client_storage(namespace, key, value, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		`, namespace, k, v, now)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Clear(ctx context.Context, namespace string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM client_storage WHERE namespace = $1`, namespace)
	return err
}

// PurgeIdle drops namespaces whose newest key is older than before.
func (s *Store) PurgeIdle(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM client_storage
		WHERE namespace IN (
		  SELECT namespace FROM client_storage
		  GROUP BY namespace
		  HAVING max(updated_at) < $1
		)`, before.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
