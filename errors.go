package chaos

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDescriptor matches every descriptor validation failure.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
	// ErrUnknownFractalType matches descriptors whose type is not recognized.
	ErrUnknownFractalType = errors.New("unknown fractal type")
)

// InvalidDescriptorError reports a malformed or missing descriptor field.
type InvalidDescriptorError struct {
	ID     string
	Field  string
	Reason string
}

func (e *InvalidDescriptorError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid descriptor: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid descriptor %q: %s: %s", e.ID, e.Field, e.Reason)
}

func (e *InvalidDescriptorError) Is(target error) bool {
	return target == ErrInvalidDescriptor
}

// UnknownFractalTypeError reports a descriptor type other than chaosGame or chaosAffine.
type UnknownFractalTypeError struct {
	ID   string
	Type string
}

func (e *UnknownFractalTypeError) Error() string {
	return fmt.Sprintf("descriptor %q: unknown fractal type %q", e.ID, e.Type)
}

func (e *UnknownFractalTypeError) Is(target error) bool {
	return target == ErrUnknownFractalType
}

// ProbabilitySumWarning is recorded when affine rule probabilities do not sum to 1.
// It never fails normalization; the weights are used as given.
type ProbabilitySumWarning struct {
	ID  string
	Sum float64
}

func (w ProbabilitySumWarning) String() string {
	return fmt.Sprintf("descriptor %q: probabilities sum to %g, expected ~1", w.ID, w.Sum)
}

func invalid(id, field, format string, args ...any) error {
	return &InvalidDescriptorError{ID: id, Field: field, Reason: fmt.Sprintf(format, args...)}
}
