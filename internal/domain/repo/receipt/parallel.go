package receipt

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/repo"
)

// ParallelWriter hands the same aggregate to every writer concurrently.
// Writers must not mutate it.
type ParallelWriter struct {
	writers []repo.ReceiptWriter
}

func NewParallelWriter(writers ...repo.ReceiptWriter) ParallelWriter {
	return ParallelWriter{
		writers: writers,
	}
}

func (p ParallelWriter) WriteReceipts(ctx context.Context, receipts entity.Aggregate) error {
	group, ctx := errgroup.WithContext(ctx)

	for _, w := range p.writers {
		writer := w

		group.Go(func() error {
			return writer.WriteReceipts(ctx, receipts)
		})
	}

	return group.Wait()
}
