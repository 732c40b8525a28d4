package model

import (
	"testing"
	"time"
)

func TestUserDisplayHelpers(t *testing.T) {
	tests := []struct {
		name         string
		fullName     string
		city         string
		wantFirst    string
		wantInitials string
		wantLocation string
	}{
		{"two words", "budi santoso", "jakarta", "budi", "BS", "Jakarta, Indonesia"},
		{"three words", "Siti Nur Aisyah", "bandung", "Siti", "SN", "Bandung, Indonesia"},
		{"single word", "Agus", "surabaya", "Agus", "A", "Surabaya, Indonesia"},
		{"extra spaces", "  Dewi   Lestari ", "", "Dewi", "DL", ""},
		{"empty", "", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{FullName: tt.fullName, City: tt.city}
			if got := u.FirstName(); got != tt.wantFirst {
				t.Errorf("FirstName() = %q, want %q", got, tt.wantFirst)
			}
			if got := u.Initials(); got != tt.wantInitials {
				t.Errorf("Initials() = %q, want %q", got, tt.wantInitials)
			}
			if got := u.Location(); got != tt.wantLocation {
				t.Errorf("Location() = %q, want %q", got, tt.wantLocation)
			}
		})
	}
}

func TestReportMatches(t *testing.T) {
	r := &Report{
		ID:          "P2026100042",
		Title:       "Broken streetlight on Jalan Merdeka",
		Description: "The lamp has been out for two weeks",
		Status:      StatusFinished,
	}

	tests := []struct {
		name   string
		status string
		query  string
		want   bool
	}{
		{"no filter", "", "", true},
		{"all", StatusAll, "", true},
		{"exact status", "finished", "", true},
		{"other status", "inprocess", "", false},
		{"unknown status", "pending", "", false},
		{"title case-insensitive", "", "STREETLIGHT", true},
		{"by id", "", "p20261000", true},
		{"by description", "", "two weeks", true},
		{"no match", "", "pothole", false},
		{"status and query", "finished", "merdeka", true},
		{"status mismatch with query match", "rejected", "merdeka", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Matches(tt.status, tt.query); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.status, tt.query, got, tt.want)
			}
		})
	}
}

func TestCountReports(t *testing.T) {
	reports := []Report{
		{Status: StatusInProcess},
		{Status: StatusInProcess},
		{Status: StatusFinished},
		{Status: StatusRejected},
	}

	got := CountReports(reports)
	want := ReportStats{Total: 4, InProcess: 2, Finished: 1, Rejected: 1}
	if got != want {
		t.Errorf("CountReports() = %+v, want %+v", got, want)
	}
	if got.InProcess+got.Finished+got.Rejected != got.Total {
		t.Error("status counts do not sum to total")
	}

	if empty := CountReports(nil); empty != (ReportStats{}) {
		t.Errorf("CountReports(nil) = %+v, want zero value", empty)
	}
}

func TestBuildTimeline(t *testing.T) {
	submitted := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		status ReportStatus
		want   []string
	}{
		{StatusInProcess, []string{"inprocess", "received"}},
		{StatusFinished, []string{"finished", "inprocess", "received"}},
		{StatusRejected, []string{"rejected", "received"}},
		{ReportStatus("archived"), []string{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got := BuildTimeline(&Report{Status: tt.status, SubmittedAt: submitted})
			if len(got) != len(tt.want) {
				t.Fatalf("BuildTimeline() returned %d milestones, want %d", len(got), len(tt.want))
			}
			for i, m := range got {
				if m.Status != tt.want[i] {
					t.Errorf("milestone[%d].Status = %q, want %q", i, m.Status, tt.want[i])
				}
				if !m.At.Equal(submitted) {
					t.Errorf("milestone[%d].At = %v, want submission time", i, m.At)
				}
				if m.Title == "" || m.Description == "" {
					t.Errorf("milestone[%d] has empty title or description", i)
				}
			}
		})
	}
}

func TestStatusValidAndLabel(t *testing.T) {
	if !StatusInProcess.Valid() || !StatusFinished.Valid() || !StatusRejected.Valid() {
		t.Error("known statuses should be valid")
	}
	if ReportStatus("all").Valid() {
		t.Error(`"all" is a filter value, not a status`)
	}
	if StatusRejected.Label() != "Rejected" {
		t.Errorf("Label() = %q, want %q", StatusRejected.Label(), "Rejected")
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Error("session should not be expired before ExpiresAt")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Error("session should be expired at ExpiresAt")
	}
}

func TestDisplayDate(t *testing.T) {
	r := &Report{SubmittedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)}
	if got := r.DisplayDate(); got != "January 5, 2026" {
		t.Errorf("DisplayDate() = %q, want %q", got, "January 5, 2026")
	}
}
