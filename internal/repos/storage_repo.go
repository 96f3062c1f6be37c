package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// StorageRepo is the SQLite-backed session.Store.
type StorageRepo struct{ db *sqlx.DB }

func NewStorageRepo(db *sqlx.DB) *StorageRepo { return &StorageRepo{db: db} }

type storageRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

func (r *StorageRepo) Load(ctx context.Context, namespace string) (map[string]string, error) {
	var rows []storageRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT key, value FROM client_storage WHERE namespace=?`, namespace); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

func (r *StorageRepo) Save(ctx context.Context, namespace string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for k, v := range values {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO client_storage(namespace, key, value, updated_at)
		  VALUES(?, ?, ?, ?)
		  ON CONFLICT(namespace, key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
		`, namespace, k, v, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *StorageRepo) Clear(ctx context.Context, namespace string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM client_storage WHERE namespace=?`, namespace)
	return err
}
