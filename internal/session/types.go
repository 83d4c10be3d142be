package session

import "github.com/zappabad/stockdesk/internal/market"

// Role gates presentation only; the server enforces authorization.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is admin or user.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is the identity returned by the authentication collaborator.
type User struct {
	ID    market.ID `json:"id"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

// Session is a logged-in identity plus its bearer credential.
type Session struct {
	User  User
	Token string
}

// IsAdmin reports whether the session's role is admin.
func (s Session) IsAdmin() bool {
	return s.User.Role == RoleAdmin
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Event is published whenever the session changes. A nil Session means
// unauthenticated.
type Event struct {
	Session *Session
}
