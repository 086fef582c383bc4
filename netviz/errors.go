package netviz

import (
	"github.com/pkg/errors"
)

// Returned when a file cannot be deserialized as a model of the expected framework.
type LoadError struct {
	Filename string
	Err      error
}

func (e *LoadError) Error() string {
	return "error loading model " + e.Filename + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Returned when the deserialized object is not a recognized module.
type TypeMismatchError struct {
	Filename string
	TypeName string
}

func (e *TypeMismatchError) Error() string {
	msg := "loaded object is not a valid model module"
	if e.TypeName != "" {
		msg += " (got " + e.TypeName + ")"
	}
	return msg
}

// Returned when the synthetic forward pass fails.
type InferenceError struct {
	Filename string
	Err      error
}

func (e *InferenceError) Error() string {
	return "error running forward pass on " + e.Filename + ": " + e.Err.Error()
}

func (e *InferenceError) Unwrap() error { return e.Err }

const (
	KindLoad         = "load"
	KindTypeMismatch = "type_mismatch"
	KindInference    = "inference"
)

// ErrorKind classifies an error chain into one of the summarizer error kinds,
// or returns the empty string for anything else.
func ErrorKind(err error) string {
	var loadErr *LoadError
	var typeErr *TypeMismatchError
	var inferErr *InferenceError
	switch {
	case errors.As(err, &loadErr):
		return KindLoad
	case errors.As(err, &typeErr):
		return KindTypeMismatch
	case errors.As(err, &inferErr):
		return KindInference
	}
	return ""
}
