package service

import "errors"

// Sentinel error kinds for the service. The HTTP layer maps them to status codes.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrNotFound     = errors.New("series not found")
	ErrCapacity     = errors.New("series capacity reached")
	ErrUnreadable   = errors.New("reader cannot read series")
	ErrInvalidSpec  = errors.New("invalid series spec")
	ErrUnknownInput = errors.New("input has no registered time information")
)
