package domain

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExists      = errors.New("session already in progress")
	ErrUnknownInterview   = errors.New("unknown interview id")
	ErrInvariantViolation = errors.New("session invariant violated")
)
