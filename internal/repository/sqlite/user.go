package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/speakout/internal/apperror"
	"github.com/sakif/speakout/internal/model"
	"github.com/sakif/speakout/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user. An ID is generated if the caller left it
// empty, and RegisteredAt defaults to now.
//
// The email column is UNIQUE, so a duplicate registration is rejected by the
// database itself even if two requests race past the service-level check.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = xid.New().String()
	}
	if user.RegisteredAt.IsZero() {
		user.RegisteredAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, full_name, nik, email, city, password_hash, registered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.FullName,
		user.NationalID,
		user.Email,
		user.City,
		user.PasswordHash,
		user.RegisteredAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

const selectUser = `SELECT id, full_name, nik, email, city, password_hash, registered_at FROM users`

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx, selectUser+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail looks a user up by their exact email.
// Returns apperror.ErrNotFound if nobody registered with it.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx, selectUser+` WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.NationalID,
		&u.Email,
		&u.City,
		&u.PasswordHash,
		&u.RegisteredAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
