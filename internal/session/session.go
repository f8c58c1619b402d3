// Package session owns the persisted client session: the access/refresh
// token pair plus the role and user id returned at login. It is the only
// component allowed to trigger the redirect to the login route, which it
// does from Clear.
package session

import (
	"errors"
	"fmt"
)

// Role is the server-assigned role of the logged-in user. The client
// treats it as a routing hint only; the server re-checks authorization
// on every request.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Client-side routes.
const (
	RouteLogin     = "/login"
	RouteAdminHome = "/admin"
	RouteUserHome  = "/user"
)

// ErrUnknownRole is returned by LandingRoute for any role value other
// than admin or user. Unknown roles are surfaced, never defaulted.
var ErrUnknownRole = errors.New("session: unrecognized role")

// LandingRoute maps a role to its post-login landing route.
func LandingRoute(role Role) (string, error) {
	switch role {
	case RoleAdmin:
		return RouteAdminHome, nil
	case RoleUser:
		return RouteUserHome, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
}

// Session is the persisted session record. JSON keys mirror the storage
// keys the browser client used, so a session file is self-describing.
type Session struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Role         Role   `json:"userRole,omitempty"`
	UserID       string `json:"userId,omitempty"`
}

// LoggedIn reports whether the session holds credentials.
func (s Session) LoggedIn() bool {
	return s.AccessToken != ""
}

// validate enforces the pairing invariant: both tokens present or both
// absent, and role/userId present exactly when the access token is.
func (s Session) validate() error {
	if (s.AccessToken == "") != (s.RefreshToken == "") {
		return errors.New("session: access and refresh tokens must be set together")
	}

	if s.AccessToken != "" && (s.Role == "" || s.UserID == "") {
		return errors.New("session: role and user id required with tokens")
	}

	if s.AccessToken == "" && (s.Role != "" || s.UserID != "") {
		return errors.New("session: role and user id set without tokens")
	}

	return nil
}
