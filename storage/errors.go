package storage

import "errors"

// Storage-level sentinels. The service layer maps these onto its own error
// taxonomy rather than leaking filesystem details upward.
var (
	ErrNotFound = errors.New("no file for id")
)
