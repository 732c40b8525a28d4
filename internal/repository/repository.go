// Package repository defines the storage interfaces the service layer depends on.
//
// Two implementations exist:
//   - repository/sqlite: the default relational store
//   - repository/kv:     a key-value store (in-memory or redis) that keeps the
//     browser client's "users" document layout
//
// Both return apperror.NotFound / apperror.Conflict for the domain cases and
// wrap everything else.
package repository

import (
	"context"

	"github.com/sakif/speakout/internal/model"
)

type UserRepository interface {
	// CreateUser inserts a new user. Returns apperror.ErrConflict if the
	// email is already registered.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type ReportRepository interface {
	// CreateReport appends a report to its owner's sequence. Returns
	// apperror.ErrConflict if the report ID is already taken.
	CreateReport(ctx context.Context, report *model.Report) error
	// ListReports returns a user's reports in submission order.
	ListReports(ctx context.Context, userID string) ([]model.Report, error)
	GetReport(ctx context.Context, userID, id string) (*model.Report, error)
	DeleteReport(ctx context.Context, userID, id string) error
	ReportExists(ctx context.Context, id string) (bool, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Store bundles every repository plus lifecycle management; it is what
// server.New opens from configuration.
type Store interface {
	UserRepository
	ReportRepository
	SessionRepository
	// Ping checks that the backing database is reachable.
	Ping(ctx context.Context) error
	Close() error
}
