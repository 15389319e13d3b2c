package persistence

import "errors"

var (
	// ErrNotFound is returned when no ledger artifact has been written yet.
	ErrNotFound = errors.New("persistence: not found")
	// ErrChecksumMismatch is returned when a stored document does not match its recorded checksum.
	ErrChecksumMismatch = errors.New("persistence: checksum mismatch")
)
