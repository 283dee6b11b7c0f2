package domain

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSubmissionsClosed = errors.New("session is not accepting submissions")
	ErrNoActiveSession   = errors.New("no active session")
	ErrLeaseHeld         = errors.New("host lease held by another instance")
	ErrNotLeaseHolder    = errors.New("not the current lease holder")
)
