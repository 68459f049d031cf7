package game

import "errors"

// Generation / configuration. These signal a corpus or config problem and
// are not retried.
var (
	ErrGenerationExhausted = errors.New("game: no letter set satisfied the acceptance bounds")
	ErrInvalidLetterSet    = errors.New("game: invalid letter set")
	ErrInvalidConfig       = errors.New("game: invalid configuration")
)

// Session state conflicts.
var (
	ErrSessionCompleted = errors.New("game: session already completed")
	ErrSessionExists    = errors.New("game: session already exists")
	ErrPuzzleMismatch   = errors.New("game: session belongs to a different puzzle")
	ErrInvalidSnapshot  = errors.New("game: invalid session snapshot")
)
