package factory

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openshift-assisted/ansible-receipts/internal/config"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/repo"
	"github.com/openshift-assisted/ansible-receipts/internal/processing"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

/*
 * DecorateFoldProcessing decorates the fold as follow:
 *
 * panic --> duration --> event count --> main (aggregator)
 *
 * The fold is not retried: it is not idempotent.
 */
func DecorateFoldProcessing(mainProcessing pipeline.Processing[entity.Event], registry prometheus.Registerer, clock clockwork.Clock) (pipeline.Processing[entity.Event], error) {
	ret, err := processing.NewCountEvents(mainProcessing, registry, pipeline.MetricsConfig{Namespace: "fold"})
	if err != nil {
		return nil, fmt.Errorf("failed to create event count processor: %w", err)
	}

	ret, err = pipeline.NewDurationMetricsDecoratorProcessing(ret, registry, clock, pipeline.MetricsConfig{Namespace: "fold"})
	if err != nil {
		return nil, fmt.Errorf("failed to create duration metrics processor: %w", err)
	}

	ret = pipeline.NewPanicHandlerProcessing(ret)

	return ret, nil
}

/*
 * DecorateErrorProcessing decorates the error processing as follow:
 *
 *										---> retry --> dlq (optional)
 *	panic --> duration --> parallel ---|---> error count
 *										---> error log
 */
func DecorateErrorProcessing(dlq repo.ProcessingErrorWriter, logger logr.Logger, registry prometheus.Registerer, retry config.Retry) (pipeline.ErrorProcessing, error) {
	errorCount, err := pipeline.NewErrorCountProcessing(registry, pipeline.MetricsConfig{Namespace: "error"})
	if err != nil {
		return nil, fmt.Errorf("failed to create error count processing: %w", err)
	}

	processings := []pipeline.Processing[pipeline.ErrProcessingError]{errorCount, pipeline.NewErrorLogProcessing(logger)}

	if dlq != nil {
		var dlqProcessing pipeline.Processing[pipeline.ErrProcessingError] = pipeline.ProcessingFunc[pipeline.ErrProcessingError](dlq.WriteProcessingError)

		processings = append(processings, pipeline.NewRetryProcessing(dlqProcessing, retryConfig(retry)))
	}

	ret := pipeline.NewParallelProcessing(processings...)

	ret, err = pipeline.NewDurationMetricsDecoratorProcessing(ret, registry, clockwork.NewRealClock(), pipeline.MetricsConfig{Namespace: "error"})
	if err != nil {
		return nil, fmt.Errorf("failed to create duration metrics processor: %w", err)
	}

	ret = pipeline.NewPanicHandlerProcessing(ret)

	return ret, nil
}

func retryConfig(conf config.Retry) pipeline.RetryConfig {
	return pipeline.RetryConfig{
		MaxAttempt: conf.MaxAttempt,
		Delay:      conf.Delay,
	}
}
