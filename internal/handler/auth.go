package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/speakout/internal/apperror"
	"github.com/sakif/speakout/internal/auth"
	"github.com/sakif/speakout/internal/model"
	"github.com/sakif/speakout/internal/service"
)

// AuthHandler handles registration, login, logout and the profile endpoint.
//
//   - HandleRegister → POST /api/register
//   - HandleLogin    → POST /api/login, sets the session cookie
//   - HandleLogout   → POST /api/logout, deletes the session and the cookie
//   - HandleMe       → GET  /api/me
type AuthHandler struct {
	auth         *service.AuthService
	reports      *service.ReportService
	cookieSecure bool
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. cookieSecure should be true
// whenever the server is reached over HTTPS.
func NewAuthHandler(
	authSvc *service.AuthService,
	reports *service.ReportService,
	cookieSecure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:         authSvc,
		reports:      reports,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// HandleRegister creates an account.
//
// HTTP: POST /api/register
// REQUEST BODY: {"fullName","nationalId","email","city","password"}
// RESPONSE: 201 with the user (no password)
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type loginResponse struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// HandleLogin checks credentials and starts a session.
//
// HTTP: POST /api/login
// REQUEST BODY: {"email","password"}
//
// The token goes into an HttpOnly cookie for browsers and is also returned
// in the body for clients that send it as a Bearer header.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if !decodeJSON(w, r, &in) {
		return
	}

	res, err := h.auth.Login(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	// HttpOnly keeps the token away from page scripts. SameSite=Lax stops it
	// riding along on cross-site POSTs.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		MaxAge:   int(time.Until(res.Session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		User:      res.User,
		Token:     res.Token,
		ExpiresAt: res.Session.ExpiresAt,
	})
}

// HandleLogout ends the current session.
//
// HTTP: POST /api/logout
// Auth: Required
//
// The session row is deleted, so the token stops working immediately even
// if a client kept a copy.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Please log in first."))
		return
	}

	if err := h.auth.Logout(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the profile page data for the current user.
//
// HTTP: GET /api/me
// Auth: Required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Please log in first."))
		return
	}

	profile, err := h.reports.Profile(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
