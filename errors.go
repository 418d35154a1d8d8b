package howa

import "errors"

var (
	// Backend errors.
	ErrNoBackend        = errors.New("howa: no backend configured")
	ErrStoreUnavailable = errors.New("howa: store unavailable")

	// Not found errors.
	ErrTaskNotFound = errors.New("howa: task not found")

	// Submission errors.
	ErrInvalidRequest = errors.New("howa: invalid request")

	// State errors.
	ErrInvalidTransition = errors.New("howa: invalid state transition")

	// Pipeline contract violations.
	ErrStageInputMissing   = errors.New("howa: stage input missing")
	ErrStageOutputMissing  = errors.New("howa: stage output missing")
	ErrStageOutputConflict = errors.New("howa: stage output already present")
)
