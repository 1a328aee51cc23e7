package domain

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSessionID = errors.New("invalid session id")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrCompletionFailed = errors.New("completion failed")
)
