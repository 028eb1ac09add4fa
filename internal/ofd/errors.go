package ofd

import (
	"errors"
	"fmt"
)

// ErrInvalidURLFormat indicates the receipt URL does not start with URLPrefix
var ErrInvalidURLFormat = errors.New("invalid receipt url format")

// ErrTimeout indicates the receipt page did not arrive within the fetch timeout
var ErrTimeout = errors.New("receipt request timed out")

// ErrConnectionFailed indicates a transport failure that survived all retries
var ErrConnectionFailed = errors.New("connection to receipt server failed")

// ErrNotFound indicates the portal answered 404 for the receipt
var ErrNotFound = errors.New("receipt not found")

// ErrMalformedDocument indicates the receipt markup violates the expected row layout
var ErrMalformedDocument = errors.New("malformed receipt document")

// ErrEmptyResult indicates the receipt parsed fine but holds no items
var ErrEmptyResult = errors.New("receipt has no items")

// ServerError is returned for any non-success status other than 404
type ServerError struct {
	StatusCode int
	Body       string // leading part of the response body
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("receipt server error (status %d): %s", e.StatusCode, e.Body)
}

// MalformedError describes the row that broke the layout assumptions
type MalformedError struct {
	Row    int // zero-based index of the item row
	Cells  int // number of cells found in the offending row
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed receipt document: item %d: %s (%d cells)", e.Row, e.Reason, e.Cells)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformedDocument
}
