package shard

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested shard id has no backing artifact.
var ErrNotFound = errors.New("shard not found")

// FormatError indicates a malformed shard payload. The whole shard is
// rejected; partially valid payloads never reach the graph.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type FormatError struct {
	ID     ID
	Reason string
	cause  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("shard %d: invalid payload: %s", e.ID, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.cause }
