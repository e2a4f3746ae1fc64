package models

import "errors"

// Custom errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidOdds      = errors.New("invalid odds value")
	ErrTooFewSelections = errors.New("accumulator requires at least two selections")
	ErrDuplicateEvent   = errors.New("accumulator contains selections from the same event")
)
