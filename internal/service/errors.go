package service

import "github.com/pkg/errors"

// Sentinel errors mapped onto HTTP statuses at the API boundary. Outcomes
// that are part of normal escalation business (no eligible handler, already
// at the top of the ladder) are not errors; see EscalationResult.
var (
	// ErrForbidden is returned when the acting user is not authorized to
	// act on the issue at its current level and jurisdiction.
	ErrForbidden = errors.New("not permitted to act on this issue")

	// ErrNotFound is returned on an issue or user lookup miss.
	ErrNotFound = errors.New("record not found")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("invalid input")

	// ErrConflict is returned when a write lost a race: the issue changed
	// since it was read.
	ErrConflict = errors.New("issue was modified concurrently")
)
