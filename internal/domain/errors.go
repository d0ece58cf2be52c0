package domain

import "errors"

var (
	// ErrUnknownBook is returned when a book id does not exist in the catalog.
	ErrUnknownBook = errors.New("unknown book")
	// ErrUnknownChapter is returned when a chapter id does not exist in a book.
	ErrUnknownChapter = errors.New("unknown chapter")
	// ErrMalformedQuestion marks a raw record that cannot be normalized, e.g.
	// a choice question whose correctAnswer index is out of range. Such
	// records are quarantined at catalog load, never surfaced to players.
	ErrMalformedQuestion = errors.New("malformed question")
	// ErrInvalidTransition indicates session misuse: submitting or abandoning
	// outside the InProgress state. This is a caller bug and always fails the
	// call loudly.
	ErrInvalidTransition = errors.New("invalid session transition")
)
