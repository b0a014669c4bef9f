package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a chat has no stored session.
var ErrSessionNotFound = errors.New("session not found")

// ErrMalformedDate is returned when a stored date does not match DateLayout.
var ErrMalformedDate = errors.New("malformed date")

// ErrInvalidDate is returned for calendar dates that do not exist.
var ErrInvalidDate = errors.New("invalid calendar date")

// ErrUnknownStatus is returned when a stored attendance status is not recognised.
var ErrUnknownStatus = errors.New("unknown attendance status")

// ErrDuplicateRecord is returned when an attendance record already exists for
// (cell group, date, name). Stores never upsert.
var ErrDuplicateRecord = errors.New("attendance record already exists")

// ErrDuplicateMember is returned when a member is already enrolled in a cell group.
var ErrDuplicateMember = errors.New("member already enrolled")

// GatewayError wraps a failure of the roster/attendance store.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
