package repo

import (
	"context"

	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

//go:generate mockgen -source=interfaces.go -package=mock -destination=./mock/mock_repo.go

type ProcessingErrorWriter interface {
	WriteProcessingError(ctx context.Context, pErr pipeline.ErrProcessingError) error
}

type ProcessingError interface {
	ProcessingErrorWriter
}

// ReceiptWriter persists the finalized aggregate of a run. It is called once per run.
type ReceiptWriter interface {
	WriteReceipts(ctx context.Context, receipts entity.Aggregate) error
}
