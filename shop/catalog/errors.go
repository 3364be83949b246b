package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound means the requested row does not exist.
var ErrNotFound = errors.New("catalog: not found")

// NotFound wraps ErrNotFound with the entity and key that were missing.
func NotFound(entity string, key any) error {
	return fmt.Errorf("%s %v: %w", entity, key, ErrNotFound)
}

// StorageError reports a failed storage operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("catalog: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Code classifies the error for handler logs.
func (e *StorageError) Code() string {
	if errors.Is(e.Err, ErrNotFound) {
		return "NOT_FOUND"
	}
	return "STORAGE"
}

// Wrap returns nil for nil err, passes ErrNotFound through and wraps anything else.
func Wrap(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
