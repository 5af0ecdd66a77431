package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest = errors.New("invalid search request")

	// ErrAuthenticationRequired means the saved session is missing or was
	// rejected and no interactive login is possible.
	ErrAuthenticationRequired = errors.New("authentication required")

	ErrNoListings = errors.New("no listings collected")
)

// NavigationError reports a page that could not be loaded in time.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ExportError carries the number of records that were collected before the
// export step failed, so the caller can report them.
type ExportError struct {
	Stage     string
	Collected int
	Err       error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed at %s (%d listings collected): %v", e.Stage, e.Collected, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
