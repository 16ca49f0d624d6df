package service

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation error")
)

// errNoop aborts a transaction that turned out to have nothing to commit.
var errNoop = errors.New("nothing to commit")
