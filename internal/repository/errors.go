package repository

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	// ErrStaleStatus is returned when a conditional status update finds the
	// row in a different state than expected.
	ErrStaleStatus = errors.New("status changed concurrently")
)
