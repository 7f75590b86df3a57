package service

import "errors"

// Operation-aborting errors of the clone pipeline. Callers match them with errors.Is;
// per-item failures are reported as strings on the CloneReport instead.
var (
	ErrNotFound        = errors.New("account not found")
	ErrInvalidRequest  = errors.New("invalid clone request")
	ErrQuotaExceeded   = errors.New("listing limit exceeded")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrTimeout         = errors.New("clone timed out")
	ErrCloneInProgress = errors.New("a clone into this account is already running")
)
