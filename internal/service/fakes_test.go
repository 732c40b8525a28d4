package service

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/sakif/speakout/internal/apperror"
	"github.com/sakif/speakout/internal/auth"
	"github.com/sakif/speakout/internal/model"
)

// fakeStore is an in-memory implementation of the user, report and session
// repositories. Setting one of the *Err fields simulates a database failure.
type fakeStore struct {
	users    []*model.User
	reports  []model.Report
	sessions map[string]*model.Session
	nextID   int

	// forced results
	existsErr  error
	createErr  error
	listErr    error
	takenIDs   map[string]bool // ReportExists reports these as taken
	raceIDs    map[string]bool // CreateReport rejects these with a conflict
	createCall int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]*model.Session),
		takenIDs: make(map[string]bool),
		raceIDs:  make(map[string]bool),
	}
}

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", user.Email)
		}
	}
	if user.ID == "" {
		f.nextID++
		user.ID = "user-" + string(rune('0'+f.nextID))
	}
	copied := *user
	f.users = append(f.users, &copied)
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeStore) CreateReport(_ context.Context, r *model.Report) error {
	f.createCall++
	if f.createErr != nil {
		return f.createErr
	}
	if f.raceIDs[r.ID] {
		return apperror.Conflict("report", r.ID)
	}
	for _, existing := range f.reports {
		if existing.ID == r.ID {
			return apperror.Conflict("report", r.ID)
		}
	}
	f.reports = append(f.reports, *r)
	return nil
}

func (f *fakeStore) ListReports(_ context.Context, userID string) ([]model.Report, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Report{}
	for _, r := range f.reports {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetReport(_ context.Context, userID, id string) (*model.Report, error) {
	for _, r := range f.reports {
		if r.ID == id && r.UserID == userID {
			copied := r
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("report", id)
}

func (f *fakeStore) DeleteReport(_ context.Context, userID, id string) error {
	i := slices.IndexFunc(f.reports, func(r model.Report) bool { return r.ID == id && r.UserID == userID })
	if i < 0 {
		return apperror.NotFound("report", id)
	}
	f.reports = slices.Delete(f.reports, i, i+1)
	return nil
}

func (f *fakeStore) ReportExists(_ context.Context, id string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	if f.takenIDs[id] {
		return true, nil
	}
	return slices.ContainsFunc(f.reports, func(r model.Report) bool { return r.ID == id }), nil
}

func (f *fakeStore) CreateSession(_ context.Context, s *model.Session) error {
	copied := *s
	f.sessions[s.ID] = &copied
	return nil
}

func (f *fakeStore) GetSession(_ context.Context, id string) (*model.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperror.NotFound("session", id)
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStore) DeleteSession(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Cost 4 is the bcrypt minimum and keeps tests fast.
func testPasswords() *auth.PasswordService {
	return auth.NewPasswordService(4)
}

func newTestAuthService(t *testing.T, store *fakeStore) *AuthService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return NewAuthService(store, store, ts, testPasswords(), time.Hour, testLogger())
}

// fixedClock is 09:30 on 14 October 2026, local time.
var fixedClock = time.Date(2026, 10, 14, 9, 30, 0, 0, time.Local)

func newTestReportService(t *testing.T, store *fakeStore) *ReportService {
	t.Helper()
	svc := NewReportService(store, store, testPasswords(), testLogger())
	svc.now = func() time.Time { return fixedClock }
	return svc
}

// sequence returns a randN that yields the given numbers in order, then
// repeats the last one.
func sequence(nums ...int) func(int) int {
	i := 0
	return func(int) int {
		n := nums[min(i, len(nums)-1)]
		i++
		return n
	}
}

func registerTestUser(t *testing.T, svc *AuthService, email string) *model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		FullName:   "Budi Santoso",
		NationalID: "3171234567890001",
		Email:      email,
		City:       "jakarta",
		Password:   "rahasia",
	})
	if err != nil {
		t.Fatalf("Register(%s) error = %v", email, err)
	}
	return user
}
