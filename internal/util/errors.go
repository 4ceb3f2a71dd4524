package util

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the exam core. Operations wrap one of these with
// context, callers classify with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrState      = errors.New("illegal state transition")
	ErrConflict   = errors.New("concurrency conflict")
)

var (
	ErrExamNotFound          = fmt.Errorf("%w: exam not found", ErrNotFound)
	ErrSectionNotFound       = fmt.Errorf("%w: section not found", ErrNotFound)
	ErrQuestionNotFound      = fmt.Errorf("%w: question not found", ErrNotFound)
	ErrAttemptNotFound       = fmt.Errorf("%w: attempt not found", ErrNotFound)
	ErrSectionAttemptMissing = fmt.Errorf("%w: section is not part of this attempt", ErrNotFound)

	ErrExamNotPublished  = fmt.Errorf("%w: exam is not published yet", ErrValidation)
	ErrSectionIDRequired = fmt.Errorf("%w: section id is required for section mode", ErrValidation)
	ErrForeignSection    = fmt.Errorf("%w: section does not belong to this exam", ErrValidation)
	ErrPermissionDenied  = fmt.Errorf("%w: you are not allowed to access this attempt", ErrValidation)

	ErrAttemptFinalized   = fmt.Errorf("%w: attempt is already finalized", ErrState)
	ErrSectionsIncomplete = fmt.Errorf("%w: please submit every section before finalizing the test", ErrState)

	ErrVersionMismatch = fmt.Errorf("%w: attempt was modified concurrently", ErrConflict)
	ErrLockTimeout     = fmt.Errorf("%w: attempt is locked by another request", ErrConflict)
)

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Statef builds a state error with a formatted message.
func Statef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrState, fmt.Sprintf(format, args...))
}

// NotFoundf builds a not-found error with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
