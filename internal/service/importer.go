package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/speakout/internal/apperror"
	"github.com/sakif/speakout/internal/auth"
	"github.com/sakif/speakout/internal/legacy"
)

// ImportResult summarises an ImportLegacy run.
type ImportResult struct {
	UsersImported   int `json:"usersImported"`
	UsersSkipped    int `json:"usersSkipped"`
	ReportsImported int `json:"reportsImported"`
	ReportsSkipped  int `json:"reportsSkipped"`
}

// ImportLegacy loads users and reports exported from the browser client.
//
// Users whose email is already registered are skipped along with their
// reports, so running an import twice is harmless. Plaintext passwords are
// hashed; values that are already bcrypt hashes (an export of the kv store)
// are kept. Reports keep their IDs, statuses and timestamps. A record that
// cannot be imported is logged and skipped; only store failures abort.
func (s *ReportService) ImportLegacy(ctx context.Context, dump *legacy.Dump) (*ImportResult, error) {
	res := &ImportResult{}

	for _, rec := range dump.Users {
		if rec.Email == "" || rec.Password == "" {
			s.logger.Warn("skipping legacy user without credentials", slog.String("email", rec.Email))
			res.UsersSkipped++
			continue
		}

		_, err := s.users.GetUserByEmail(ctx, rec.Email)
		if err == nil {
			s.logger.Info("skipping legacy user, email already registered", slog.String("email", rec.Email))
			res.UsersSkipped++
			continue
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return res, fmt.Errorf("service/import: looking up %s: %w", rec.Email, err)
		}

		user := rec.User()
		if !auth.IsHash(user.PasswordHash) {
			hash, err := s.passwords.Hash(user.PasswordHash)
			if err != nil {
				s.logger.Warn("skipping legacy user, password not hashable",
					slog.String("email", rec.Email),
					slog.String("error", err.Error()),
				)
				res.UsersSkipped++
				continue
			}
			user.PasswordHash = hash
		}
		if user.RegisteredAt.IsZero() {
			user.RegisteredAt = s.now()
		}

		if err := s.users.CreateUser(ctx, user); err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				res.UsersSkipped++
				continue
			}
			return res, fmt.Errorf("service/import: creating user %s: %w", rec.Email, err)
		}
		res.UsersImported++

		for _, rr := range rec.Reports {
			report, err := rr.Report(user.ID)
			if err != nil {
				s.logger.Warn("skipping legacy report", slog.String("error", err.Error()))
				res.ReportsSkipped++
				continue
			}

			if err := s.reports.CreateReport(ctx, report); err != nil {
				if errors.Is(err, apperror.ErrConflict) {
					s.logger.Warn("skipping legacy report, ID already taken", slog.String("reportID", report.ID))
					res.ReportsSkipped++
					continue
				}
				return res, fmt.Errorf("service/import: creating report %s: %w", report.ID, err)
			}
			res.ReportsImported++
		}
	}

	s.logger.Info("legacy import finished",
		slog.Int("usersImported", res.UsersImported),
		slog.Int("usersSkipped", res.UsersSkipped),
		slog.Int("reportsImported", res.ReportsImported),
		slog.Int("reportsSkipped", res.ReportsSkipped),
	)
	return res, nil
}
