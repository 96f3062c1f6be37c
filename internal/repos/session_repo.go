package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// SessionRepo tracks which browser sessions exist and when they were last seen.
type SessionRepo struct{ DB *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{DB: db} }

func (r *SessionRepo) Touch(ctx context.Context, sid, userAgent string) error {
	_, err := r.DB.ExecContext(ctx, `
	  INSERT INTO sessions(id, user_agent, last_seen)
	  VALUES(?, ?, ?)
	  ON CONFLICT(id) DO UPDATE SET last_seen=excluded.last_seen`,
		sid, userAgent, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (r *SessionRepo) BindUser(ctx context.Context, sid string, userID int64) error {
	_, err := r.DB.ExecContext(ctx, `
	  INSERT INTO sessions(id, user_id, last_seen)
	  VALUES(?, ?, ?)
	  ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id, last_seen=excluded.last_seen`,
		sid, userID, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (r *SessionRepo) UnbindUser(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE sessions SET user_id=NULL WHERE id=?`, sid)
	return err
}

// Idle lists sessions not seen since before.
func (r *SessionRepo) Idle(ctx context.Context, before time.Time) ([]string, error) {
	var ids []string
	err := r.DB.SelectContext(ctx, &ids, `
	  SELECT id FROM sessions
	  WHERE COALESCE(last_seen, created_at) < ?
	  ORDER BY last_seen`, before.UTC().Format(time.RFC3339))
	return ids, err
}

// Delete forgets a session together with its stored client state.
func (r *SessionRepo) Delete(ctx context.Context, sid string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM client_storage WHERE namespace=?`, sid); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, sid); err != nil {
		return err
	}
	return tx.Commit()
}
