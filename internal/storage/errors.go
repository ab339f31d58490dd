package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested key does not exist in the bucket.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidURI is returned when a storage URI does not contain both a
	// bucket and a key segment.
	ErrInvalidURI = errors.New("invalid storage URI")

	// ErrEmptyObject is returned when an upload carries no bytes.
	ErrEmptyObject = errors.New("object is empty")
)

// StorageError wraps a storage failure with the operation and key involved.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WrapStorageError wraps err as a StorageError unless it already is one.
func WrapStorageError(op, key string, err error) error {
	if err == nil {
		return nil
	}

	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return err
	}

	return &StorageError{Op: op, Key: key, Err: err}
}
