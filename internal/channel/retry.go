package channel

import (
	"context"

	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

// RetrySender retries sends failing with a retryable error.
type RetrySender struct {
	processing pipeline.Processing[entity.Event]
}

func NewRetrySender(sender Sender, config pipeline.RetryConfig) RetrySender {
	send := pipeline.ProcessingFunc[entity.Event](sender.Send)

	return RetrySender{
		processing: pipeline.NewRetryProcessing[entity.Event](send, config),
	}
}

func (s RetrySender) Send(ctx context.Context, event entity.Event) error {
	return s.processing.Process(ctx, event)
}
