package common

import (
	"fmt"

	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

func NewErrProcessingError(err error, category string, inputs []pipeline.Input, reason string, args ...interface{}) pipeline.ErrProcessingError {
	cause := fmt.Sprintf(reason, args...)
	dErr := fmt.Errorf("%s: %w", cause, err)

	return pipeline.NewErrProcessingError(dErr, category, inputs)
}

func NewRetryableErrProcessingError(err error, category string, inputs []pipeline.Input, reason string, args ...interface{}) pipeline.ErrProcessingError {
	return NewErrProcessingError(pipeline.NewErrRetryableError(err), category, inputs, reason, args...)
}

// NewMaybeRetryableErrProcessingError picks the retryable flavour when retryable is true.
func NewMaybeRetryableErrProcessingError(retryable bool, err error, category string, inputs []pipeline.Input, reason string, args ...interface{}) pipeline.ErrProcessingError {
	if retryable {
		return NewRetryableErrProcessingError(err, category, inputs, reason, args...)
	}

	return NewErrProcessingError(err, category, inputs, reason, args...)
}
