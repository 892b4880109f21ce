package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the feasibility calculations. Callers match them
// with errors.Is; field-level failures arrive wrapped in an *InputError.
var (
	ErrMissingInput     = errors.New("missing input")
	ErrInvalidDimension = errors.New("invalid dimension")
	ErrInvalidDiameter  = errors.New("invalid screw diameter")
	ErrUndefinedTool    = errors.New("tool has no part configurations and no legacy part geometry")
	ErrNoPressureData   = errors.New("no pressure data available")
)

// InputError names the input field that made a calculation impossible.
type InputError struct {
	Field string
	Value float64
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s (got %g)", e.Err, e.Field, e.Value)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputErr(err error, field string, value float64) error {
	return &InputError{Field: field, Value: value, Err: err}
}
