package domain

// SessionState is a node of the session lifecycle:
//
//	uninitialized → restoring → {authenticated, anonymous}
//	authenticated → anonymous   (logout, invalid token)
//	anonymous     → authenticated (login, signup)
type SessionState string

const (
	SessionUninitialized SessionState = "uninitialized"
	SessionRestoring     SessionState = "restoring"
	SessionAuthenticated SessionState = "authenticated"
	SessionAnonymous     SessionState = "anonymous"
)

// Session is the portal's belief about who is logged in on one browser session.
// The backend bearer token is deliberately not part of it; it stays in the
// durable store.
type Session struct {
	ID      string       `json:"id"`
	State   SessionState `json:"state"`
	User    *User        `json:"user"`
	Loading bool         `json:"is_loading"`
	Error   string       `json:"error,omitempty"`
}

// Authenticated reports whether the session currently holds a user.
func (s *Session) Authenticated() bool {
	return s != nil && s.State == SessionAuthenticated && s.User != nil
}
