package auth

import (
	"net/http"
	"time"
)

// Session cookie names
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
	PendingCookie = "totp_pending"
)

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// cookiePath scopes each cookie. The refresh and pending tokens are only sent
// to /auth endpoints.
func cookiePath(name string) string {
	if name == AccessCookie {
		return "/"
	}
	return "/auth"
}

// SetCookie writes a session cookie
func SetCookie(w http.ResponseWriter, name, value string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     cookiePath(name),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires a session cookie
func ClearCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     cookiePath(name),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
