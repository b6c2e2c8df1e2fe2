package pipeline

import (
	"errors"
	"fmt"
)

// ErrProcessingError

type ErrProcessingError struct {
	error
	Category string
	// Source names where the faulty payload came from (stdin line, valkey key, kafka partition...)
	Source           string
	Payload          []byte
	AdditionalInputs []Input
}

type Input struct {
	Source string
	Key    string
	Value  []byte
}

const (
	UnknownCategory        = "unknown"
	UnmarshalErrorCategory = "unmarshal"
	PanicCategory          = "panic"
)

func NewErrProcessingError(err error, category string, additionalInputs []Input) ErrProcessingError {
	return ErrProcessingError{
		error:            err,
		Category:         category,
		AdditionalInputs: additionalInputs,
	}
}

// WithPayload attaches the raw input that could not be processed.
func (e ErrProcessingError) WithPayload(source string, payload []byte) ErrProcessingError {
	e.Source = source
	e.Payload = payload

	return e
}

func (e ErrProcessingError) Unwrap() error {
	return e.error
}

// ErrRetryableError

var ErrRetryableError = errors.New("retryable error")

func NewErrRetryableError(err error) error {
	return fmt.Errorf("%w: %w", ErrRetryableError, err)
}

func NewRetryableErrProcessingError(err error, category string, additionalInputs []Input) ErrProcessingError {
	return NewErrProcessingError(NewErrRetryableError(err), category, additionalInputs)
}

// ErrFatalError

// ErrFatalError stops a line handler: the lines after it cannot be processed without loss.
var ErrFatalError = errors.New("fatal error")

func NewErrFatalError(err error) error {
	return fmt.Errorf("%w: %w", ErrFatalError, err)
}

// AsProcessingError returns err as an ErrProcessingError, wrapping it in the unknown category if needed.
func AsProcessingError(err error) ErrProcessingError {
	ret := ErrProcessingError{}
	if errors.As(err, &ret) {
		return ret
	}

	return NewErrProcessingError(err, UnknownCategory, nil)
}
