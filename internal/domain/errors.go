package domain

import "errors"

var (
	ErrNoSession      = errors.New("no active session")
	ErrSessionExpired = errors.New("session expired")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrValidation     = errors.New("validation failed")
	ErrNotConnected   = errors.New("chat connection is not open")
	ErrBlankMessage   = errors.New("blank message")
	ErrChatActive     = errors.New("chat session already active")
	ErrNoChat         = errors.New("no active chat session")
)
