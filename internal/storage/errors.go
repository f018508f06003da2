package storage

import "errors"

// ErrNotFound is returned when the requested user, trip or message does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when creating a user whose email is already registered.
var ErrConflict = errors.New("resource already exists")
