// Package legacy reads and writes the user/report records of the original
// browser client, which kept everything in localStorage.
//
// The layout is a single "users" value holding a JSON array of user records,
// each with its reports nested inside:
//
//	[{"fullName":"Budi Santoso","nik":"3171...","email":"budi@example.com",
//	  "city":"jakarta","password":"...","registeredAt":"2026-10-14T02:00:00.000Z",
//	  "reports":[{"id":"P2026100042","title":"...","status":"inprocess",
//	              "submittedAt":"...","date":"October 14, 2026", ...}]}]
//
// repository/kv stores data in this same shape, and cmd/import loads browser
// exports of it into any store.
package legacy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sakif/speakout/internal/model"
)

// TimeLayout is the format JavaScript's Date.toISOString produces.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// dateLayout is the toLocaleDateString('en-US', {month: 'long'}) format that
// older reports carry in place of submittedAt.
const dateLayout = "January 2, 2006"

// UserRecord is one element of the "users" array.
type UserRecord struct {
	ID           string         `json:"id,omitempty"`
	FullName     string         `json:"fullName"`
	NIK          string         `json:"nik"`
	Email        string         `json:"email"`
	City         string         `json:"city"`
	Password     string         `json:"password"`
	RegisteredAt string         `json:"registeredAt"`
	Reports      []ReportRecord `json:"reports"`
}

// ReportRecord is a report nested in a UserRecord.
type ReportRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Description string `json:"description"`
	FilesCount  int    `json:"filesCount"`
	SubmittedAt string `json:"submittedAt,omitempty"`
	Status      string `json:"status"`
	Date        string `json:"date,omitempty"`
}

// Dump is a decoded localStorage export.
type Dump struct {
	Users []UserRecord
}

// Decode reads a localStorage export: a JSON object whose "users" key holds
// the user array. localStorage only stores strings, so exports usually carry
// the array JSON-encoded inside a string; a plain array is accepted too.
// Other keys (currentUser and anything unrelated) are ignored.
func Decode(r io.Reader) (*Dump, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("legacy: decoding export: %w", err)
	}

	users, ok := raw["users"]
	if !ok {
		return &Dump{}, nil
	}

	records, err := DecodeUsers(users)
	if err != nil {
		return nil, err
	}
	return &Dump{Users: records}, nil
}

// DecodeUsers parses the value of the "users" key, either the array itself
// or a string containing it.
func DecodeUsers(data []byte) ([]UserRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []UserRecord{}, nil
	}

	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("legacy: decoding users string: %w", err)
		}
		data = []byte(inner)
	}

	records := []UserRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("legacy: decoding users: %w", err)
	}
	if records == nil {
		records = []UserRecord{}
	}
	return records, nil
}

// FormatTime renders t the way the browser client did.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts any RFC 3339 timestamp, including the millisecond
// toISOString form.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// User converts the record to a model.User. Password is copied into
// PasswordHash unchanged; whether it is a hash is for the caller to decide.
// A missing or unparseable registeredAt yields the zero time.
func (u UserRecord) User() *model.User {
	user := &model.User{
		ID:           u.ID,
		FullName:     u.FullName,
		NationalID:   u.NIK,
		Email:        u.Email,
		City:         u.City,
		PasswordHash: u.Password,
	}
	if t, err := ParseTime(u.RegisteredAt); err == nil {
		user.RegisteredAt = t
	}
	return user
}

// Report converts the record to a model.Report owned by userID.
//
// submittedAt wins when present. Records written before it existed only have
// the display date, which resolves to midnight UTC of that day. A record
// with neither, or without an ID, is an error.
func (r ReportRecord) Report(userID string) (*model.Report, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("legacy: report %q has no id", r.Title)
	}

	report := &model.Report{
		ID:          r.ID,
		UserID:      userID,
		Title:       r.Title,
		Category:    r.Category,
		Location:    r.Location,
		Description: r.Description,
		FilesCount:  r.FilesCount,
		Status:      model.ReportStatus(r.Status),
	}

	switch {
	case r.SubmittedAt != "":
		t, err := ParseTime(r.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("legacy: report %s: parsing submittedAt %q: %w", r.ID, r.SubmittedAt, err)
		}
		report.SubmittedAt = t
	case r.Date != "":
		t, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("legacy: report %s: parsing date %q: %w", r.ID, r.Date, err)
		}
		report.SubmittedAt = t
	default:
		return nil, fmt.Errorf("legacy: report %s has no submittedAt or date", r.ID)
	}

	return report, nil
}

// FromUser builds the record for u with no reports.
func FromUser(u *model.User) UserRecord {
	return UserRecord{
		ID:           u.ID,
		FullName:     u.FullName,
		NIK:          u.NationalID,
		Email:        u.Email,
		City:         u.City,
		Password:     u.PasswordHash,
		RegisteredAt: FormatTime(u.RegisteredAt),
		Reports:      []ReportRecord{},
	}
}

// FromReport builds the record for r, including the display date.
func FromReport(r *model.Report) ReportRecord {
	return ReportRecord{
		ID:          r.ID,
		Title:       r.Title,
		Category:    r.Category,
		Location:    r.Location,
		Description: r.Description,
		FilesCount:  r.FilesCount,
		SubmittedAt: FormatTime(r.SubmittedAt),
		Status:      string(r.Status),
		Date:        r.DisplayDate(),
	}
}
