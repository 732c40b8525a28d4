package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/speakout/internal/apperror"
	"github.com/sakif/speakout/internal/model"
	"github.com/sakif/speakout/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

// CreateSession stores a new session. Sessions already expired at
// s.CreatedAt are removed first, so the table does not keep every login
// ever made.
func (db *DB) CreateSession(ctx context.Context, s *model.Session) error {
	if err := db.pruneExpiredSessions(ctx, s.CreatedAt); err != nil {
		return err
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.UserID, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("session", s.ID)
		}
		return fmt.Errorf("sqlite: inserting session for user %s: %w", s.UserID, err)
	}
	return nil
}

func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("session", id)
		}
		return nil, fmt.Errorf("sqlite: getting session %s: %w", id, err)
	}
	return &s, nil
}

// DeleteSession removes a session. Deleting one that is already gone is not
// an error: logout is idempotent.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting session %s: %w", id, err)
	}
	return nil
}

// pruneExpiredSessions deletes sessions whose expiry is at or before now.
// Expiry is compared after scanning so the result does not depend on how
// the driver formats stored timestamps.
func (db *DB) pruneExpiredSessions(ctx context.Context, now time.Time) error {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, expires_at FROM sessions`)
	if err != nil {
		return fmt.Errorf("sqlite: listing sessions: %w", err)
	}

	var expired []string
	for rows.Next() {
		var (
			id        string
			expiresAt time.Time
		)
		if err := rows.Scan(&id, &expiresAt); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: scanning session: %w", err)
		}
		if !expiresAt.After(now) {
			expired = append(expired, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("sqlite: listing sessions: %w", err)
	}
	rows.Close()

	for _, id := range expired {
		if err := db.DeleteSession(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
