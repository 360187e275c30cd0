package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindInvalidPublication Kind = "invalid_publication"
	KindNoSource           Kind = "no_source"
	KindExtractionFailed   Kind = "extraction_failed"
	KindInternal           Kind = "internal"
)

// Error is returned when a publication cannot be processed.
type Error struct {
	Kind  Kind
	PubID int // negative for uploads
	Err   error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.PubID >= 0 {
		msg += fmt.Sprintf(" (publication %d)", e.PubID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a pipeline error of kind k.
func IsKind(err error, k Kind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == k
	}
	return false
}
