package errs

import (
	"errors"
)

var (
	ErrNotFound         = errors.New("Id not found")
	ErrMissingName      = errors.New("Please provide the book name")
	ErrNegativePages    = errors.New("pageCount and readPage must not be negative")
	ErrInvalidPageRange = errors.New("readPage must not be greater than pageCount")
	ErrInsertFailed     = errors.New("insert failed")
)
