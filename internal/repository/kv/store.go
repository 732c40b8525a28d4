package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/speakout/internal/apperror"
	"github.com/sakif/speakout/internal/legacy"
	"github.com/sakif/speakout/internal/model"
	"github.com/sakif/speakout/internal/repository"
)

const (
	usersKey    = "users"
	sessionsKey = "sessions"
)

var _ repository.Store = (*Store)(nil)

// Store implements repository.Store over a Backend.
type Store struct {
	backend Backend
	mu      sync.Mutex
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

type sessionRecord struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// loadUsers reads the users array. A missing key is an empty array.
// Callers must hold s.mu.
func (s *Store) loadUsers(ctx context.Context) ([]legacy.UserRecord, error) {
	data, err := s.backend.Get(ctx, usersKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return []legacy.UserRecord{}, nil
		}
		return nil, fmt.Errorf("kv: loading users: %w", err)
	}
	return legacy.DecodeUsers(data)
}

func (s *Store) saveUsers(ctx context.Context, users []legacy.UserRecord) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("kv: encoding users: %w", err)
	}
	if err := s.backend.Set(ctx, usersKey, data); err != nil {
		return fmt.Errorf("kv: saving users: %w", err)
	}
	return nil
}

func findUser(users []legacy.UserRecord, match func(*legacy.UserRecord) bool) int {
	for i := range users {
		if match(&users[i]) {
			return i
		}
	}
	return -1
}

func byID(id string) func(*legacy.UserRecord) bool {
	return func(u *legacy.UserRecord) bool { return u.ID == id }
}

// CreateUser appends a user record. Email comparison is exact.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	if findUser(users, func(u *legacy.UserRecord) bool { return u.Email == user.Email }) >= 0 {
		return apperror.Conflict("user", user.Email)
	}

	if user.ID == "" {
		user.ID = xid.New().String()
	}
	if user.RegisteredAt.IsZero() {
		user.RegisteredAt = time.Now()
	}

	return s.saveUsers(ctx, append(users, legacy.FromUser(user)))
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, id, byID(id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, email, func(u *legacy.UserRecord) bool { return u.Email == email })
}

func (s *Store) getUser(ctx context.Context, key string, match func(*legacy.UserRecord) bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	i := findUser(users, match)
	if i < 0 {
		return nil, apperror.NotFound("user", key)
	}
	return users[i].User(), nil
}

// CreateReport appends the report to its owner's list. Report IDs must be
// unique across all users.
func (s *Store) CreateReport(ctx context.Context, r *model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	if reportTaken(users, r.ID) {
		return apperror.Conflict("report", r.ID)
	}

	i := findUser(users, byID(r.UserID))
	if i < 0 {
		return apperror.NotFound("user", r.UserID)
	}
	users[i].Reports = append(users[i].Reports, legacy.FromReport(r))

	return s.saveUsers(ctx, users)
}

// ListReports returns the user's reports in stored order. An unknown user
// has no reports.
func (s *Store) ListReports(ctx context.Context, userID string) ([]model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	reports := []model.Report{}
	i := findUser(users, byID(userID))
	if i < 0 {
		return reports, nil
	}
	for _, rec := range users[i].Reports {
		r, err := rec.Report(userID)
		if err != nil {
			return nil, fmt.Errorf("kv: %w", err)
		}
		reports = append(reports, *r)
	}
	return reports, nil
}

func (s *Store) GetReport(ctx context.Context, userID, id string) (*model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	i := findUser(users, byID(userID))
	if i < 0 {
		return nil, apperror.NotFound("report", id)
	}
	for _, rec := range users[i].Reports {
		if rec.ID == id {
			r, err := rec.Report(userID)
			if err != nil {
				return nil, fmt.Errorf("kv: %w", err)
			}
			return r, nil
		}
	}
	return nil, apperror.NotFound("report", id)
}

func (s *Store) DeleteReport(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	i := findUser(users, byID(userID))
	if i < 0 {
		return apperror.NotFound("report", id)
	}

	kept := users[i].Reports[:0]
	found := false
	for _, rec := range users[i].Reports {
		if rec.ID == id {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	if !found {
		return apperror.NotFound("report", id)
	}
	users[i].Reports = kept

	return s.saveUsers(ctx, users)
}

func (s *Store) ReportExists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return false, err
	}
	return reportTaken(users, id), nil
}

func reportTaken(users []legacy.UserRecord, id string) bool {
	for _, u := range users {
		for _, r := range u.Reports {
			if r.ID == id {
				return true
			}
		}
	}
	return false
}

// loadSessions reads the sessions map. Callers must hold s.mu.
func (s *Store) loadSessions(ctx context.Context) (map[string]sessionRecord, error) {
	sessions := map[string]sessionRecord{}
	data, err := s.backend.Get(ctx, sessionsKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return sessions, nil
		}
		return nil, fmt.Errorf("kv: loading sessions: %w", err)
	}
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("kv: decoding sessions: %w", err)
	}
	if sessions == nil {
		sessions = map[string]sessionRecord{}
	}
	return sessions, nil
}

func (s *Store) saveSessions(ctx context.Context, sessions map[string]sessionRecord) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("kv: encoding sessions: %w", err)
	}
	if err := s.backend.Set(ctx, sessionsKey, data); err != nil {
		return fmt.Errorf("kv: saving sessions: %w", err)
	}
	return nil
}

// CreateSession stores a session. Expired sessions are pruned on the way so
// the map does not grow without bound.
func (s *Store) CreateSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return err
	}
	if _, ok := sessions[session.ID]; ok {
		return apperror.Conflict("session", session.ID)
	}

	now := time.Now()
	for id, rec := range sessions {
		if !now.Before(rec.ExpiresAt) {
			delete(sessions, id)
		}
	}

	sessions[session.ID] = sessionRecord{
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	}
	return s.saveSessions(ctx, sessions)
}

func (s *Store) GetSession(ctx context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := sessions[id]
	if !ok {
		return nil, apperror.NotFound("session", id)
	}
	return &model.Session{ID: id, UserID: rec.UserID, CreatedAt: rec.CreatedAt, ExpiresAt: rec.ExpiresAt}, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return err
	}
	if _, ok := sessions[id]; !ok {
		return nil
	}
	delete(sessions, id)
	return s.saveSessions(ctx, sessions)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Store) Close() error {
	return s.backend.Close()
}
