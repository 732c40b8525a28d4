package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/speakout/internal/apperror"
	"github.com/sakif/speakout/internal/model"
)

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "budi@example.com")

	now := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	s := &model.Session{ID: "sess1", UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)}
	if err := db.CreateSession(ctx, s); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	got, err := db.GetSession(ctx, "sess1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", got.UserID, user.ID)
	}
	if !got.ExpiresAt.Equal(s.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, s.ExpiresAt)
	}

	if err := db.DeleteSession(ctx, "sess1"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := db.GetSession(ctx, "sess1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSession() after delete error = %v, want ErrNotFound", err)
	}

	// idempotent
	if err := db.DeleteSession(ctx, "sess1"); err != nil {
		t.Errorf("second DeleteSession() error = %v", err)
	}
}

func TestCreateSession_UnknownUser(t *testing.T) {
	db := newTestDB(t)
	s := &model.Session{ID: "sess1", UserID: "nobody", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	if err := db.CreateSession(context.Background(), s); err == nil {
		t.Error("CreateSession() for unknown user should fail the foreign key")
	}
}

func TestCreateSession_PrunesExpired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "budi@example.com")

	now := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	old := &model.Session{ID: "old", UserID: user.ID, CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-24 * time.Hour)}
	live := &model.Session{ID: "live", UserID: user.ID, CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour)}
	for _, s := range []*model.Session{old, live} {
		if err := db.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession(%s) error = %v", s.ID, err)
		}
	}

	fresh := &model.Session{ID: "fresh", UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)}
	if err := db.CreateSession(ctx, fresh); err != nil {
		t.Fatalf("CreateSession(fresh) error = %v", err)
	}

	if _, err := db.GetSession(ctx, "old"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expired session still present: err = %v", err)
	}
	for _, id := range []string{"live", "fresh"} {
		if _, err := db.GetSession(ctx, id); err != nil {
			t.Errorf("GetSession(%s) error = %v", id, err)
		}
	}
}
