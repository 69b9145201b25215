package model

import "errors"

// Domain error sentinels shared by the store, the remote client, and the
// engine. Callers match them with errors.Is.
var (
	// ErrConflict means the requested time range is no longer free.
	// Surfaced to users as "already reserved"; never retried.
	ErrConflict = errors.New("reservation conflict")

	// ErrNotFound means the referenced reservation or facility does not
	// exist.
	ErrNotFound = errors.New("not found")
)
