package domain

import "errors"

// ErrNotFound is returned when a requested row does not exist or is
// soft-deleted.
var ErrNotFound = errors.New("not found")
