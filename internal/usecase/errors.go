package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrSourceUnavailable     = errors.New("source unavailable")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
