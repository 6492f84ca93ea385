package domain

import "errors"

// ErrNotFound reports that a looked-up record does not exist. Storage
// backends wrap their own not-found errors with it so callers never depend
// on a particular driver.
var ErrNotFound = errors.New("record not found")
