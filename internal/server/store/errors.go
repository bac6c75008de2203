package store

import "errors"

var (
	// ErrNotFound is returned when an id has no record in the store.
	ErrNotFound = errors.New("store: image not found")

	// ErrStorageFull is returned when the backing filesystem is out of space.
	ErrStorageFull = errors.New("store: storage full")
)
