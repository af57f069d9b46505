package models

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is the only failure the pricing engine produces.
var ErrInvalidParameter = errors.New("invalid parameter")

// InvalidParameterError names the offending input.
type InvalidParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%g: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

func NewInvalidParameter(field string, value float64, reason string) error {
	return &InvalidParameterError{Field: field, Value: value, Reason: reason}
}

// AsInvalidParameter unwraps err into an *InvalidParameterError when possible.
func AsInvalidParameter(err error) (*InvalidParameterError, bool) {
	var ipe *InvalidParameterError
	if errors.As(err, &ipe) {
		return ipe, true
	}
	return nil, false
}
