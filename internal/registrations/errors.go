package registrations

import "errors"

// Sentinel errors mapped to HTTP status codes at the handler boundary.
var (
	ErrEmailRequired   = errors.New("email is required")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrInvalidSession  = errors.New("invalid selectedSession")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
	ErrNoFilters       = errors.New("at least one filter is required")
	ErrNotFound        = errors.New("registration not found")
	ErrNoRegistrations = errors.New("no registrations found")
)
