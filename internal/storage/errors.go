package storage

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrAlreadyExists is returned when a uniqueness constraint is violated,
// e.g. registering a username that is already taken.
var ErrAlreadyExists = errors.New("storage: already exists")
