package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/speakout/internal/apperror"
	"github.com/sakif/speakout/internal/model"
	"github.com/sakif/speakout/internal/repository"
)

var _ repository.ReportRepository = (*DB)(nil)

// CreateReport inserts a report. The caller supplies the ID; a taken ID is
// reported as apperror.ErrConflict so the ID generator can retry.
func (db *DB) CreateReport(ctx context.Context, r *model.Report) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO reports (id, user_id, title, category, location, description, files_count, status, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.UserID,
		r.Title,
		r.Category,
		r.Location,
		r.Description,
		r.FilesCount,
		string(r.Status),
		r.SubmittedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("report", r.ID)
		}
		return fmt.Errorf("sqlite: inserting report %s: %w", r.ID, err)
	}
	return nil
}

const selectReport = `SELECT id, user_id, title, category, location, description, files_count, status, submitted_at FROM reports`

// ListReports returns every report owned by userID, oldest first.
//
// ORDER BY rowid is insertion order. submitted_at could tie for reports
// created within the same clock tick, and imported reports may carry
// timestamps older than rows inserted before them.
func (db *DB) ListReports(ctx context.Context, userID string) ([]model.Report, error) {
	rows, err := db.conn.QueryContext(ctx,
		selectReport+` WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reports for user %s: %w", userID, err)
	}
	defer rows.Close()

	reports := []model.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning report row: %w", err)
		}
		reports = append(reports, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating report rows: %w", err)
	}

	return reports, nil
}

// GetReport returns one report, scoped to its owner. A report that exists
// but belongs to someone else is reported as not found.
func (db *DB) GetReport(ctx context.Context, userID, id string) (*model.Report, error) {
	r, err := scanReport(db.conn.QueryRowContext(ctx,
		selectReport+` WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("report", id)
		}
		return nil, fmt.Errorf("sqlite: getting report %s: %w", id, err)
	}
	return r, nil
}

// DeleteReport removes a report owned by userID.
func (db *DB) DeleteReport(ctx context.Context, userID, id string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM reports WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting report %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected for report %s: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("report", id)
	}
	return nil
}

// ReportExists checks whether any user owns a report with this ID.
func (db *DB) ReportExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reports WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking report %s: %w", id, err)
	}
	return exists, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReport(s scanner) (*model.Report, error) {
	var (
		r      model.Report
		status string
	)
	err := s.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.Category,
		&r.Location,
		&r.Description,
		&r.FilesCount,
		&status,
		&r.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = model.ReportStatus(status)
	return &r, nil
}
