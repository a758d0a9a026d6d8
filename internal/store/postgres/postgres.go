// Package postgres stores sessions in two tables: sessions for metadata and
// an append only messages table of (role, content, created_at) rows.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq"
	"github.com/m-mizutani/goerr/v2"
	"go-toolchat/internal/store"
	"go-toolchat/pkg/models"
)

const (
	selectSession  = `SELECT model, created_at, expires_at FROM sessions WHERE id = $1`
	selectMessages = `SELECT role, content, created_at FROM messages WHERE session_id = $1 ORDER BY created_at, id`
	deleteMessages = `DELETE FROM messages WHERE session_id = $1`
	upsertSession  = `INSERT INTO sessions (id, model, created_at, expires_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET model = EXCLUDED.model, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at`
	insertMessage = `INSERT INTO messages (session_id, role, content, created_at) VALUES ($1, $2, $3, $4)`
	touchSession  = `UPDATE sessions SET expires_at = $2 WHERE id = $1`
	updateModel   = `UPDATE sessions SET model = $2, expires_at = $3 WHERE id = $1`
)

type Store struct {
	DB *sql.DB
}

// Open connects with lib/pq and pings the database.
func Open(ctx context.Context, url string) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to ping postgres")
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) Load(ctx context.Context, id string) (*models.Session, error) {
	session := &models.Session{ID: id, Messages: []models.Message{}}
	err := s.DB.QueryRowContext(ctx, selectSession, id).Scan(&session.Model, &session.CreatedAt, &session.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(store.ErrNotFound, "load", goerr.V("session", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read session", goerr.V("session", id))
	}

	rows, err := s.DB.QueryContext(ctx, selectMessages, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read messages", goerr.V("session", id))
	}
	defer rows.Close()

	for rows.Next() {
		var msg models.Message
		var role string
		if err := rows.Scan(&role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan message", goerr.V("session", id))
		}
		msg.Role = models.Role(role)
		session.Messages = append(session.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate messages", goerr.V("session", id))
	}
	return session, nil
}

func (s *Store) Reset(ctx context.Context, session *models.Session) error {
	return s.tx(ctx, session.ID, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteMessages, session.ID); err != nil {
			return goerr.Wrap(err, "failed to delete messages")
		}
		if _, err := tx.ExecContext(ctx, upsertSession, session.ID, session.Model, session.CreatedAt, session.ExpiresAt); err != nil {
			return goerr.Wrap(err, "failed to upsert session")
		}
		return nil
	})
}

func (s *Store) Append(ctx context.Context, id string, msg models.Message, expiresAt int64) error {
	return s.tx(ctx, id, func(tx *sql.Tx) error {
		if err := touch(ctx, tx, touchSession, id, expiresAt); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertMessage, id, string(msg.Role), msg.Content, msg.CreatedAt); err != nil {
			return goerr.Wrap(err, "failed to insert message")
		}
		return nil
	})
}

func (s *Store) SetModel(ctx context.Context, id, model string, expiresAt int64) error {
	return s.tx(ctx, id, func(tx *sql.Tx) error {
		return touch(ctx, tx, updateModel, id, model, expiresAt)
	})
}

// touch runs an UPDATE against sessions and maps zero affected rows to
// ErrNotFound.
func touch(ctx context.Context, tx *sql.Tx, query, id string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return goerr.Wrap(err, "failed to update session")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) tx(ctx context.Context, id string, fn func(*sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction", goerr.V("session", id))
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return goerr.Wrap(err, "session write failed", goerr.V("session", id))
	}
	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit", goerr.V("session", id))
	}
	return nil
}
