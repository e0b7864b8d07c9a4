package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBackendRejected    = errors.New("backend rejected request")
	ErrRateLimited        = errors.New("rate limited")
	ErrLockHeld           = errors.New("lock already held")
	ErrBackendUnavailable = errors.New("backend unavailable")
)
