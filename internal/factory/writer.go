package factory

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/jonboulle/clockwork"

	"github.com/openshift-assisted/ansible-receipts/internal/common"
	"github.com/openshift-assisted/ansible-receipts/internal/config"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/repo"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/repo/processingerror"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/repo/receipt"
)

type sinkBuilder func(ctx context.Context) (repo.ReceiptWriter, common.CloseFunc, error)

// CreateReceiptWriter combines every configured output. The file output is always part of it.
// The close funcs of the sinks built so far are returned even on failure.
func CreateReceiptWriter(ctx context.Context, conf config.Config, logger logr.Logger) (repo.ReceiptWriter, []common.CloseFunc, error) {
	builders := []sinkBuilder{
		func(context.Context) (repo.ReceiptWriter, common.CloseFunc, error) {
			return receipt.NewFileWriter(conf.Output.Path).WithLogger(logger), common.NoopClose, nil
		},
	}

	if conf.Output.S3.Bucket != "" {
		builders = append(builders, func(ctx context.Context) (repo.ReceiptWriter, common.CloseFunc, error) {
			client, err := CreateS3Client(ctx, conf.Output.S3)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create receipts s3 client: %w", err)
			}

			return receipt.NewS3Writer(client, clockwork.NewRealClock(), conf.Output.S3.Bucket, conf.Output.S3.KeyPrefix, conf.Run.ID), common.NoopClose, nil
		})
	}

	if conf.Output.Valkey.Enabled {
		builders = append(builders, func(ctx context.Context) (repo.ReceiptWriter, common.CloseFunc, error) {
			client, closeFunc, err := CreateValkeyClient(ctx, conf.Output.Valkey.Valkey)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create receipts valkey client: %w", err)
			}

			return receipt.NewValkeyWriter(client, conf.Output.Valkey.KeyPrefix, conf.Output.Valkey.Expiration).Writer(conf.Run.ID), closeFunc, nil
		})
	}

	return assembleReceiptWriter(ctx, builders)
}

func assembleReceiptWriter(ctx context.Context, builders []sinkBuilder) (repo.ReceiptWriter, []common.CloseFunc, error) {
	writers := make([]repo.ReceiptWriter, 0, len(builders))
	closeFuncs := make([]common.CloseFunc, 0, len(builders))

	for _, build := range builders {
		writer, closeFunc, err := build(ctx)
		if err != nil {
			return nil, closeFuncs, err
		}

		writers = append(writers, writer)
		closeFuncs = append(closeFuncs, closeFunc)
	}

	if len(writers) == 1 {
		return writers[0], closeFuncs, nil
	}

	return receipt.NewParallelWriter(writers...), closeFuncs, nil
}

// CreateDeadLetterQueue returns nil when no bucket is configured.
func CreateDeadLetterQueue(ctx context.Context, conf config.Config) (repo.ProcessingErrorWriter, error) {
	if conf.DeadLetterQueue.Bucket == "" {
		return nil, nil
	}

	client, err := CreateS3Client(ctx, conf.DeadLetterQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to create dead letter queue s3 client: %w", err)
	}

	return processingerror.NewS3Writer(client, clockwork.NewRealClock(), conf.DeadLetterQueue.Bucket, conf.DeadLetterQueue.KeyPrefix, conf.Run.ID), nil
}
