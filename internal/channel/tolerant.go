package channel

import (
	"context"
	"errors"

	"github.com/go-logr/logr"

	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

// TolerantReceiver skips records that cannot be decoded. They are handed to the error processing
// instead of failing the whole run.
type TolerantReceiver struct {
	receiver        Receiver
	errorProcessing pipeline.ErrorProcessing

	logger *logr.Logger
}

func NewTolerantReceiver(receiver Receiver, errorProcessing pipeline.ErrorProcessing) TolerantReceiver {
	return TolerantReceiver{
		receiver:        receiver,
		errorProcessing: errorProcessing,
	}
}

func (r TolerantReceiver) WithLogger(logger logr.Logger) TolerantReceiver {
	r.logger = &logger

	return r
}

func (r TolerantReceiver) Receive(ctx context.Context) (entity.Event, error) {
	for {
		event, err := r.receiver.Receive(ctx)
		if err == nil {
			return event, nil
		}

		pErr := pipeline.ErrProcessingError{}
		if !errors.As(err, &pErr) || pErr.Category != pipeline.UnmarshalErrorCategory {
			return event, err
		}

		if r.logger != nil {
			r.logger.Error(err, "Skipping undecodable event", "source", pErr.Source)
		}

		if r.errorProcessing == nil {
			continue
		}

		err = r.errorProcessing.Process(ctx, pErr)
		if err != nil && r.logger != nil {
			r.logger.Error(err, "Error pipeline failed", "source", pErr.Source, "payload", string(pErr.Payload))
		}
	}
}
