package services

import "errors"

// Lifecycle errors surfaced to the submission endpoints. ErrAlreadyCompleted
// is benign: duplicate submissions to a completed request acknowledge rather
// than fail, to tolerate client retries.
var (
	ErrNotFound         = errors.New("not found")
	ErrExpired          = errors.New("check-in request expired")
	ErrAlreadyCompleted = errors.New("check-in request already completed")
)
