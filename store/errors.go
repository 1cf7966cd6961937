package store

import (
	"errors"
	"fmt"
)

// ErrMissingParent is reported when a FeedEntry batch contains an entry whose
// SourceID is not positive. The whole batch is rejected before any row is
// written.
var ErrMissingParent = errors.New("feed entry is missing a parent source id")

// StorageError wraps any failure coming out of the storage engine. It is
// always caught at the store boundary and routed to the error handler;
// callers only ever see the safe default return values.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ErrorHandler is the injected fire-and-forget sink for caught storage
// failures. Implementations must not panic.
type ErrorHandler interface {
	HandleError(err error)
}
