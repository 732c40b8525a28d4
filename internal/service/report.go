// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the store
//
// Services take repository interfaces, never a concrete store, and return
// apperror values rather than HTTP status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/sakif/speakout/internal/apperror"
	"github.com/sakif/speakout/internal/auth"
	"github.com/sakif/speakout/internal/metrics"
	"github.com/sakif/speakout/internal/model"
	"github.com/sakif/speakout/internal/repository"
	"github.com/sakif/speakout/internal/sanitize"
	"github.com/sakif/speakout/internal/validate"
)

const (
	// maxIDAttempts bounds report ID generation. With 10,000 IDs per month
	// even a busy month rarely needs a second try.
	maxIDAttempts = 10

	// RecentReportsLimit is how many reports the dashboard shows.
	RecentReportsLimit = 4

	msgConfirmDelete = "Are you sure you want to delete this report? This action cannot be undone."
	msgIDExhausted   = "Could not allocate a report ID. Please try again."
	msgMarkup        = "Please remove HTML tags from this field!"
)

// ReportService handles business logic for reports and the per-user views
// built from them (stats, dashboard, profile).
type ReportService struct {
	users     repository.UserRepository
	reports   repository.ReportRepository
	passwords *auth.PasswordService
	validator *validate.Validator
	now       func() time.Time
	randN     func(n int) int
	logger    *slog.Logger
}

// NewReportService creates a ReportService. passwords is only used when
// importing legacy data.
func NewReportService(
	users repository.UserRepository,
	reports repository.ReportRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		users:     users,
		reports:   reports,
		passwords: passwords,
		validator: validate.New(),
		now:       time.Now,
		randN:     rand.IntN,
		logger:    logger,
	}
}

// SubmitInput is the new-report form. FilesCount is metadata only; the
// attachments themselves are not stored.
type SubmitInput struct {
	Title       string `json:"title" validate:"required,min=10"`
	Category    string `json:"category" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Description string `json:"description" validate:"required,min=20"`
	FilesCount  int    `json:"filesCount" validate:"gte=0"`
}

// Submit validates and saves a new report for userID.
//
// Text fields are trimmed before the length rules apply and stored as typed.
// A field holding an HTML element is rejected. The report always starts in
// process.
func (s *ReportService) Submit(ctx context.Context, userID string, in SubmitInput) (*model.Report, error) {
	in.Title = sanitize.Text(in.Title)
	in.Category = sanitize.Text(in.Category)
	in.Location = sanitize.Text(in.Location)
	in.Description = sanitize.Text(in.Description)

	for _, f := range []struct{ name, value string }{
		{"title", in.Title},
		{"category", in.Category},
		{"location", in.Location},
		{"description", in.Description},
	} {
		if sanitize.ContainsMarkup(f.value) {
			return nil, apperror.ValidationFailed(f.name, msgMarkup)
		}
	}

	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	now := s.now()
	report := &model.Report{
		UserID:      userID,
		Title:       in.Title,
		Category:    in.Category,
		Location:    in.Location,
		Description: in.Description,
		FilesCount:  in.FilesCount,
		SubmittedAt: now,
		Status:      model.StatusInProcess,
	}

	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		report.ID = s.newReportID(now)

		taken, err := s.reports.ReportExists(ctx, report.ID)
		if err != nil {
			return nil, fmt.Errorf("service/report: checking report ID: %w", err)
		}
		if taken {
			metrics.ReportIDCollisionsTotal.Inc()
			continue
		}

		err = s.reports.CreateReport(ctx, report)
		if errors.Is(err, apperror.ErrConflict) {
			// Taken between the check and the insert.
			metrics.ReportIDCollisionsTotal.Inc()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("service/report: creating report: %w", err)
		}

		metrics.ReportsSubmittedTotal.Inc()
		s.logger.Info("report submitted",
			slog.String("reportID", report.ID),
			slog.String("userID", userID),
			slog.String("category", report.Category),
			slog.Int("files", report.FilesCount),
		)
		return report, nil
	}

	s.logger.Error("report ID space exhausted",
		slog.String("userID", userID),
		slog.Int("attempts", maxIDAttempts),
	)
	return nil, apperror.ConflictMessage("id", msgIDExhausted)
}

// newReportID returns "P" + year + month + a zero-padded number below 10000.
func (s *ReportService) newReportID(t time.Time) string {
	return fmt.Sprintf("P%04d%02d%04d", t.Year(), int(t.Month()), s.randN(10000))
}

// List returns the user's reports that pass the status filter and search
// term, in submission order. See model.Report.Matches for the rules.
func (s *ReportService) List(ctx context.Context, userID, status, query string) ([]model.Report, error) {
	all, err := s.reports.ListReports(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/report: listing reports: %w", err)
	}

	matched := make([]model.Report, 0, len(all))
	for i := range all {
		if all[i].Matches(status, query) {
			matched = append(matched, all[i])
		}
	}
	return matched, nil
}

// ReportDetail is a report together with its derived status timeline.
type ReportDetail struct {
	Report   *model.Report
	Timeline []model.Milestone
}

// Get returns one of the user's reports. Reports owned by anyone else are
// not found.
func (s *ReportService) Get(ctx context.Context, userID, id string) (*ReportDetail, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "report ID is required")
	}

	report, err := s.reports.GetReport(ctx, userID, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/report: getting report %s: %w", id, err)
	}

	return &ReportDetail{Report: report, Timeline: model.BuildTimeline(report)}, nil
}

// Delete removes one of the user's reports. confirmed must be true; the
// caller is expected to have asked the user first.
func (s *ReportService) Delete(ctx context.Context, userID, id string, confirmed bool) error {
	if !confirmed {
		return apperror.ValidationFailed("confirm", msgConfirmDelete)
	}
	if id == "" {
		return apperror.ValidationFailed("id", "report ID is required")
	}

	if err := s.reports.DeleteReport(ctx, userID, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/report: deleting report %s: %w", id, err)
	}

	metrics.ReportsDeletedTotal.Inc()
	s.logger.Info("report deleted",
		slog.String("reportID", id),
		slog.String("userID", userID),
	)
	return nil
}

// Stats counts the user's reports by status. Nothing is cached; the counts
// always reflect the store.
func (s *ReportService) Stats(ctx context.Context, userID string) (model.ReportStats, error) {
	all, err := s.reports.ListReports(ctx, userID)
	if err != nil {
		return model.ReportStats{}, fmt.Errorf("service/report: listing reports: %w", err)
	}
	return model.CountReports(all), nil
}

// Dashboard is the landing view after login.
type Dashboard struct {
	Greeting  string            `json:"greeting"`
	FirstName string            `json:"firstName"`
	Initials  string            `json:"initials"`
	Location  string            `json:"location"`
	Stats     model.ReportStats `json:"stats"`
	Recent    []model.Report    `json:"recent"`
}

// Dashboard builds the greeting, stats and most recent reports for userID.
func (s *ReportService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	user, all, err := s.userWithReports(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Greeting:  Greeting(s.now().Hour()),
		FirstName: user.FirstName(),
		Initials:  user.Initials(),
		Location:  user.Location(),
		Stats:     model.CountReports(all),
		Recent:    recentReports(all, RecentReportsLimit),
	}, nil
}

// Profile is the account page: the user plus report counts.
type Profile struct {
	User     *model.User       `json:"user"`
	Initials string            `json:"initials"`
	Location string            `json:"location"`
	Stats    model.ReportStats `json:"stats"`
}

// Profile builds the account page for userID. A user that no longer exists
// is unauthorized, like the dashboard.
func (s *ReportService) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, all, err := s.userWithReports(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User:     user,
		Initials: user.Initials(),
		Location: user.Location(),
		Stats:    model.CountReports(all),
	}, nil
}

func (s *ReportService) userWithReports(ctx context.Context, userID string) (*model.User, []model.Report, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil, apperror.Unauthorized(msgLoginRequired)
		}
		return nil, nil, fmt.Errorf("service/report: fetching user %s: %w", userID, err)
	}

	all, err := s.reports.ListReports(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("service/report: listing reports: %w", err)
	}
	return user, all, nil
}

// Greeting picks the salutation for a local hour of day (0-23).
func Greeting(hour int) string {
	switch {
	case hour < 12:
		return "Good Morning"
	case hour < 18:
		return "Good Afternoon"
	default:
		return "Good Evening"
	}
}

// recentReports returns the last n reports of a chronological list, newest first.
func recentReports(reports []model.Report, n int) []model.Report {
	start := max(len(reports)-n, 0)
	recent := slices.Clone(reports[start:])
	slices.Reverse(recent)
	if recent == nil {
		recent = []model.Report{}
	}
	return recent
}
