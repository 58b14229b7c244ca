// Package principal describes the identity a generation request acts as.
package principal

import "github.com/google/uuid"

// Principal is either a Session or an APIKey. The unexported method keeps
// the set closed.
type Principal interface {
	OwnerID() uuid.UUID
	Mode() string
	principal()
}

// Session is a user authenticated through the web session. Only session
// principals are subject to the daily quota.
type Session struct {
	UserID uuid.UUID
}

func (s Session) OwnerID() uuid.UUID { return s.UserID }
func (Session) Mode() string         { return "session" }
func (Session) principal()           {}

// APIKey is a caller authenticated with a bearer API key.
type APIKey struct {
	UserID   uuid.UUID
	APIKeyID uuid.UUID
}

func (k APIKey) OwnerID() uuid.UUID { return k.UserID }
func (APIKey) Mode() string         { return "api_key" }
func (APIKey) principal()           {}
