package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrConsentRequired = errors.New("offline access consent required")
	ErrOwnerMismatch   = errors.New("record does not belong to owner")
)
