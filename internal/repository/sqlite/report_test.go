package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/speakout/internal/apperror"
	"github.com/sakif/speakout/internal/model"
)

func TestCreateReport_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "budi@example.com")
	want := createTestReport(t, db, user.ID, "P2026100001")

	got, err := db.GetReport(context.Background(), user.ID, want.ID)
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if got.Title != want.Title || got.Description != want.Description {
		t.Errorf("GetReport() = %+v, want %+v", got, want)
	}
	if got.Status != model.StatusInProcess {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusInProcess)
	}
	if got.FilesCount != 2 {
		t.Errorf("FilesCount = %d, want 2", got.FilesCount)
	}
	if !got.SubmittedAt.Equal(want.SubmittedAt) {
		t.Errorf("SubmittedAt = %v, want %v", got.SubmittedAt, want.SubmittedAt)
	}
}

func TestCreateReport_DuplicateID(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	createTestReport(t, db, alice.ID, "P2026100001")

	// IDs are global: another user cannot reuse one either.
	r := &model.Report{ID: "P2026100001", UserID: bob.ID, Title: "t", Category: "c",
		Location: "l", Description: "d", Status: model.StatusInProcess}
	err := db.CreateReport(context.Background(), r)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateReport() error = %v, want ErrConflict", err)
	}
}

func TestListReports_InsertionOrderAndOwnership(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	createTestReport(t, db, alice.ID, "P2026109999")
	createTestReport(t, db, bob.ID, "P2026100500")
	createTestReport(t, db, alice.ID, "P2026100001")

	got, err := db.ListReports(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListReports() returned %d reports, want 2", len(got))
	}
	if got[0].ID != "P2026109999" || got[1].ID != "P2026100001" {
		t.Errorf("order = [%s %s], want insertion order", got[0].ID, got[1].ID)
	}
}

func TestListReports_EmptyIsNotNil(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "budi@example.com")

	got, err := db.ListReports(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if got == nil {
		t.Error("ListReports() = nil, want empty slice")
	}
}

func TestGetReport_OtherUsersReport(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	createTestReport(t, db, alice.ID, "P2026100001")

	_, err := db.GetReport(context.Background(), bob.ID, "P2026100001")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetReport() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteReport(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "budi@example.com")
	createTestReport(t, db, user.ID, "P2026100001")

	if err := db.DeleteReport(ctx, user.ID, "P2026100001"); err != nil {
		t.Fatalf("DeleteReport() error = %v", err)
	}

	exists, err := db.ReportExists(ctx, "P2026100001")
	if err != nil {
		t.Fatalf("ReportExists() error = %v", err)
	}
	if exists {
		t.Error("report still exists after delete")
	}

	err = db.DeleteReport(ctx, user.ID, "P2026100001")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteReport() error = %v, want ErrNotFound", err)
	}
}

func TestReportExists(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "budi@example.com")
	createTestReport(t, db, user.ID, "P2026100001")

	tests := []struct {
		id   string
		want bool
	}{
		{"P2026100001", true},
		{"P2026100002", false},
	}
	for _, tt := range tests {
		got, err := db.ReportExists(context.Background(), tt.id)
		if err != nil {
			t.Fatalf("ReportExists(%q) error = %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("ReportExists(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
