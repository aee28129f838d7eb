// Package session owns the current authenticated identity. A session is
// derived entirely from decoding the persisted bearer token; it is created
// on login or startup, and destroyed on logout, expiry, or an authorization
// failure from the API.
package session

import (
	"strings"
	"time"

	"github.com/kindacts/kindcli/internal/models"
)

// Session is the decoded identity held for as long as the token is valid.
// A nil *Session is the anonymous state.
type Session struct {
	User      models.User
	ExpiresAt time.Time
}

func (s *Session) IsAdmin() bool { return s != nil && s.User.Role.IsAdmin() }

// UserID returns the identity's id, or "" for the anonymous state.
func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.User.ID
}

// TokenStore is the persisted home of the one token string, the stand-in
// for browser localStorage. Load returns "" when nothing is stored.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Navigator is where forced logouts send the user. CurrentPath decides
// between the admin and the public entry point.
type Navigator interface {
	CurrentPath() string
	Replace(path string)
}

// LoginPath picks the role-appropriate entry point for a route.
func LoginPath(current string) string {
	if strings.HasPrefix(current, "/admin") {
		return "/admin/login"
	}
	return "/login"
}
