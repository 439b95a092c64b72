package services

import "errors"

// Sentinel errors shared across services. Handlers map these onto HTTP
// statuses; authentication failures deliberately collapse several distinct
// causes into ErrInvalidCredentials so callers cannot enumerate accounts or
// tenant memberships.
var (
	ErrInvalidCredentials = errors.New("incorrect credentials")
	ErrAccountLocked      = errors.New("too many failed attempts")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotFound           = errors.New("record not found")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicate          = errors.New("duplicate record")
)
