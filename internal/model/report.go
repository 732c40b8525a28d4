package model

import (
	"strings"
	"time"
)

// ReportStatus is the lifecycle state of a report.
//
// New reports always start as StatusInProcess. Nothing in this service moves
// a report to another status; that happens out of band (city staff editing
// the record directly).
type ReportStatus string

const (
	StatusInProcess ReportStatus = "inprocess"
	StatusFinished  ReportStatus = "finished"
	StatusRejected  ReportStatus = "rejected"
)

// StatusAll is the filter value that matches every report.
const StatusAll = "all"

// Valid reports whether s is one of the three known statuses.
func (s ReportStatus) Valid() bool {
	switch s {
	case StatusInProcess, StatusFinished, StatusRejected:
		return true
	}
	return false
}

// Label is the human-readable badge text for a status.
func (s ReportStatus) Label() string {
	switch s {
	case StatusFinished:
		return "Finished"
	case StatusRejected:
		return "Rejected"
	default:
		return "In Process"
	}
}

// displayDateLayout matches the long US date the browser client showed,
// e.g. "October 14, 2026".
const displayDateLayout = "January 2, 2006"

// Report is a civic issue submitted by a user.
//
// ID FORMAT:
// "P" + 4-digit year + 2-digit month + 4-digit zero-padded random number,
// e.g. "P2026100042". See service.ReportService for how IDs are generated.
//
// FilesCount is attachment metadata only. Uploaded bytes are counted and
// discarded, never stored.
type Report struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Title       string       `json:"title"`
	Category    string       `json:"category"`
	Location    string       `json:"location"`
	Description string       `json:"description"`
	FilesCount  int          `json:"filesCount"`
	SubmittedAt time.Time    `json:"submittedAt"`
	Status      ReportStatus `json:"status"`
}

// DisplayDate formats SubmittedAt the way the report cards show it.
func (r *Report) DisplayDate() string {
	return r.SubmittedAt.Format(displayDateLayout)
}

// Matches reports whether the report passes a status filter and a search term.
//
// status "" or "all" matches everything; any other value must equal the
// report status exactly. The search term is matched case-insensitively as a
// substring of the title, the ID or the description; an empty term matches.
func (r *Report) Matches(status, query string) bool {
	if status != "" && status != StatusAll && string(r.Status) != status {
		return false
	}
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(r.Title), q) ||
		strings.Contains(strings.ToLower(r.ID), q) ||
		strings.Contains(strings.ToLower(r.Description), q)
}

// ReportStats is the per-status breakdown shown on the dashboard and profile.
// It is always derived from the report list, never stored.
type ReportStats struct {
	Total     int `json:"total"`
	InProcess int `json:"inProcess"`
	Finished  int `json:"finished"`
	Rejected  int `json:"rejected"`
}

// CountReports computes ReportStats over reports.
func CountReports(reports []Report) ReportStats {
	stats := ReportStats{Total: len(reports)}
	for _, r := range reports {
		switch r.Status {
		case StatusInProcess:
			stats.InProcess++
		case StatusFinished:
			stats.Finished++
		case StatusRejected:
			stats.Rejected++
		}
	}
	return stats
}
