// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// User represents a registered citizen account.
//
// WHY BOTH ID AND EMAIL?
// Email is the identity a person types in at login and registration rejects
// duplicates, so it behaves like a primary key. We still generate our own
// internal string ID (xid) so sessions and reports reference a value that
// never changes, even if email editing is added later.
//
// PasswordHash is a bcrypt hash, never the plaintext. The `json:"-"` tag keeps
// it out of every API response.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	NationalID   string    `json:"nationalId"` // 16-digit NIK, not unique
	Email        string    `json:"email"`
	City         string    `json:"city"`
	PasswordHash string    `json:"-"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// FirstName returns the first whitespace-separated word of the full name.
func (u *User) FirstName() string {
	fields := strings.Fields(u.FullName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Initials returns up to two uppercase initials taken from the first two
// words of the full name, e.g. "Budi Santoso Wijaya" → "BS".
func (u *User) Initials() string {
	var b strings.Builder
	for _, word := range strings.Fields(u.FullName) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	return b.String()
}

// Location renders the city for display: capitalised and suffixed with the country.
func (u *User) Location() string {
	if u.City == "" {
		return ""
	}
	return Capitalize(u.City) + ", Indonesia"
}

// Capitalize upper-cases the first rune of s and leaves the rest untouched.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
