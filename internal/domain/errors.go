package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrWSDisconnect  = errors.New("websocket disconnected")
	ErrContextDone   = errors.New("context cancelled")
	ErrLockHeld      = errors.New("lock already held")
)
