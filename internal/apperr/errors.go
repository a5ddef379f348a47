package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrForbidden     = errors.New("forbidden")
	ErrLocked        = errors.New("thread is locked")
	ErrDeleted       = errors.New("post deleted")
	ErrRateLimited   = errors.New("rate limited")
	ErrInvalidEmail  = errors.New("invalid institutional email")
)
