// Package service implements the authentication and report business rules.
//
// AuthService sits between the HTTP handlers and the repositories:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository, SessionRepository
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// A login creates a server-side session and a JWT naming it. Every protected
// request goes back to the session row and then to the user row, so there is
// no cached copy of the user that could drift from the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/speakout/internal/apperror"
	"github.com/sakif/speakout/internal/auth"
	"github.com/sakif/speakout/internal/metrics"
	"github.com/sakif/speakout/internal/model"
	"github.com/sakif/speakout/internal/repository"
	"github.com/sakif/speakout/internal/validate"
)

// DefaultSessionTTL is used when NewAuthService is given a non-positive TTL.
const DefaultSessionTTL = 24 * time.Hour

const (
	msgEmailTaken     = "Email already registered! Please use a different email."
	msgLoginFields    = "Please enter both email and password!"
	msgPasswordTooBig = "Password must be at most 72 bytes long!"
	msgLoginRequired  = "Please log in first."
	msgRegisterFields = "Please fill in all fields!"
)

// AuthService handles registration, login and session lifecycle.
type AuthService struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	validator *validate.Validator
	ttl       time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	ttl time.Duration,
	logger *slog.Logger,
) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		passwords: passwords,
		validator: validate.New(),
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
	}
}

// RegisterInput is the registration form.
type RegisterInput struct {
	FullName   string `json:"fullName" validate:"required"`
	NationalID string `json:"nationalId" validate:"required,nik"`
	Email      string `json:"email" validate:"required,simpleemail"`
	City       string `json:"city" validate:"required"`
	Password   string `json:"password" validate:"required,min=6"`
}

// RequiredMessage is the registration form's missing-field message.
func (RegisterInput) RequiredMessage() string { return msgRegisterFields }

// Register creates a new account.
//
// Every field except the password is trimmed before validation. A second
// registration with an email that is already taken fails with a conflict
// and writes nothing.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.NationalID = strings.TrimSpace(in.NationalID)
	in.Email = strings.TrimSpace(in.Email)
	in.City = strings.TrimSpace(in.City)

	if err := s.validator.Struct(in); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, apperror.ValidationFailed("password", msgPasswordTooBig)
	}

	_, err := s.users.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		metrics.RegistrationsTotal.WithLabelValues("duplicate_email").Inc()
		return nil, apperror.ConflictMessage("email", msgEmailTaken)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: looking up email: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		FullName:     in.FullName,
		NationalID:   in.NationalID,
		Email:        in.Email,
		City:         in.City,
		PasswordHash: hash,
		RegisteredAt: s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration for the same email.
		if errors.Is(err, apperror.ErrConflict) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate_email").Inc()
			return nil, apperror.ConflictMessage("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("city", user.City),
	)

	return user, nil
}

// LoginInput is the login form.
type LoginInput struct {
	Email    string `json:"email" validate:"required,simpleemail"`
	Password string `json:"password" validate:"required"`
}

// LoginResult bundles the user, session and signed token so the handler can
// set the cookie and respond in one step.
type LoginResult struct {
	User    *model.User
	Session *model.Session
	Token   string
}

// Login checks credentials and opens a session.
//
// The two failure modes stay distinct: an unknown email is
// apperror.ErrNotRegistered, a wrong password for a known email is
// apperror.ErrWrongPassword.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = strings.TrimSpace(in.Email)

	if in.Email == "" || in.Password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		field := "email"
		if in.Email != "" {
			field = "password"
		}
		return nil, apperror.ValidationFailed(field, msgLoginFields)
	}
	if err := s.validator.Struct(in); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			metrics.LoginsTotal.WithLabelValues("not_registered").Inc()
			return nil, apperror.NotRegistered()
		}
		return nil, fmt.Errorf("service/auth: looking up email: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			metrics.LoginsTotal.WithLabelValues("wrong_password").Inc()
			s.logger.Warn("login with wrong password", slog.String("userID", user.ID))
			return nil, apperror.WrongPassword()
		}
		return nil, fmt.Errorf("service/auth: verifying password for user %s: %w", user.ID, err)
	}

	now := s.now()
	sess := &model.Session{
		ID:        xid.New().String(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("service/auth: creating session for user %s: %w", user.ID, err)
	}

	token, err := s.tokens.Generate(user.ID, sess.ID, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("sessionID", sess.ID),
	)

	return &LoginResult{User: user, Session: sess, Token: token}, nil
}

// ResolveSession validates a token and returns the live session it names.
//
// The token alone is not enough: the session must still exist (not logged
// out), must belong to the token's subject, and must not have expired.
// Every failure is apperror.ErrUnauthorized.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*model.Session, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperror.Unauthorized(msgLoginRequired)
	}

	sess, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(msgLoginRequired)
		}
		return nil, fmt.Errorf("service/auth: loading session: %w", err)
	}

	if sess.UserID != claims.UserID {
		s.logger.Warn("token subject does not match session owner",
			slog.String("sessionID", sess.ID),
		)
		return nil, apperror.Unauthorized(msgLoginRequired)
	}

	if sess.Expired(s.now()) {
		if err := s.sessions.DeleteSession(ctx, sess.ID); err != nil {
			s.logger.Warn("failed to delete expired session",
				slog.String("sessionID", sess.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthorized(msgLoginRequired)
	}

	return sess, nil
}

// Logout ends a session. Logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context, sess *model.Session) error {
	if err := s.sessions.DeleteSession(ctx, sess.ID); err != nil {
		return fmt.Errorf("service/auth: deleting session %s: %w", sess.ID, err)
	}
	s.logger.Info("user logged out",
		slog.String("userID", sess.UserID),
		slog.String("sessionID", sess.ID),
	)
	return nil
}
