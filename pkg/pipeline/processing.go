package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-logr/logr"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Parallel Processing

type fanOut[Payload any] []Processing[Payload]

// NewParallelProcessing hands the payload to every stage concurrently and returns the first failure.
func NewParallelProcessing[Payload any](stages ...Processing[Payload]) Processing[Payload] {
	return fanOut[Payload](stages)
}

func (f fanOut[Payload]) Process(ctx context.Context, payload Payload) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, stage := range f {
		group.Go(func() error {
			return stage.Process(groupCtx, payload)
		})
	}

	return group.Wait()
}

// Panic handler Processing

type recoverer[Payload any] struct {
	next Processing[Payload]
}

// NewPanicHandlerProcessing turns a panic of the wrapped stage into an error of the panic category.
func NewPanicHandlerProcessing[Payload any](next Processing[Payload]) Processing[Payload] {
	return recoverer[Payload]{next: next}
}

func (r recoverer[Payload]) Process(ctx context.Context, payload Payload) (err error) {
	defer func() {
		if cause := recover(); cause != nil {
			err = NewErrProcessingError(fmt.Errorf("recovered from panic while processing %T: %v", payload, cause), PanicCategory, nil)
		}
	}()

	return r.next.Process(ctx, payload)
}

// Retry Processing

type RetryConfig struct {
	// MaxAttempt counts the first try, 0 is treated as 1
	MaxAttempt uint
	Delay      time.Duration

	// OnRetry is called before each new attempt, may be nil
	OnRetry func(attempt uint, err error)
}

type retrier[Payload any] struct {
	next Processing[Payload]
	opts []retry.Option
}

// NewRetryProcessing retries the wrapped stage as long as it fails with an ErrRetryableError.
func NewRetryProcessing[Payload any](next Processing[Payload], config RetryConfig) Processing[Payload] {
	attempts := config.MaxAttempt
	if attempts == 0 {
		// retry-go treats 0 as unlimited
		attempts = 1
	}

	opts := []retry.Option{
		retry.Attempts(attempts),
		retry.Delay(config.Delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrRetryableError)
		}),
	}

	if config.OnRetry != nil {
		opts = append(opts, retry.OnRetry(config.OnRetry))
	}

	return retrier[Payload]{next: next, opts: opts}
}

func (r retrier[Payload]) Process(ctx context.Context, payload Payload) error {
	opts := append([]retry.Option{retry.Context(ctx)}, r.opts...)

	return retry.Do(func() error {
		return r.next.Process(ctx, payload)
	}, opts...)
}

// Duration Metric Processing

type MetricsConfig struct {
	Namespace string
	Buckets   []float64
}

var defaultDurationBuckets = []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000}

type timed[Payload any] struct {
	next      Processing[Payload]
	histogram *prometheus.HistogramVec
	clock     clockwork.Clock
}

// NewDurationMetricsDecoratorProcessing observes how long the wrapped stage takes, labelled by outcome.
func NewDurationMetricsDecoratorProcessing[Payload any](next Processing[Payload], registry prometheus.Registerer, clock clockwork.Clock, config MetricsConfig) (Processing[Payload], error) {
	buckets := config.Buckets
	if len(buckets) == 0 {
		buckets = defaultDurationBuckets
	}

	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Name:      "processing_duration_milliseconds",
		Help:      "Time taken to process payload.",
		Buckets:   buckets,
	}, []string{"failed"})

	if err := registry.Register(histogram); err != nil {
		return nil, fmt.Errorf("failed to register metric: %w", err)
	}

	return timed[Payload]{next: next, histogram: histogram, clock: clock}, nil
}

func (t timed[Payload]) Process(ctx context.Context, payload Payload) error {
	start := t.clock.Now()
	err := t.next.Process(ctx, payload)
	elapsed := t.clock.Since(start)

	t.histogram.WithLabelValues(strconv.FormatBool(err != nil)).Observe(float64(elapsed) / float64(time.Millisecond))

	return err
}

// Error Metric Processing

const emptyCategory = "empty_category"

type errorCounter struct {
	byCategory *prometheus.CounterVec
}

func NewErrorCountProcessing(registry prometheus.Registerer, config MetricsConfig) (ErrorProcessing, error) {
	byCategory := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "processing_error_total",
		Help:      "Error counter by category.",
	}, []string{"category"})

	if err := registry.Register(byCategory); err != nil {
		return nil, fmt.Errorf("failed to register metric: %w", err)
	}

	return errorCounter{byCategory: byCategory}, nil
}

func (c errorCounter) Process(_ context.Context, processingError ErrProcessingError) error {
	category := processingError.Category
	if category == "" {
		category = emptyCategory
	}

	c.byCategory.WithLabelValues(category).Inc()

	return nil
}

// Error Log Processing

type errorLogger struct {
	logger logr.Logger
}

// NewErrorLogProcessing logs every processing error with its context. It never fails.
func NewErrorLogProcessing(logger logr.Logger) ErrorProcessing {
	return errorLogger{logger: logger}
}

func (l errorLogger) Process(_ context.Context, processingError ErrProcessingError) error {
	l.logger.Error(processingError, "Failed to process payload",
		"category", processingError.Category,
		"source", processingError.Source,
		"payload", string(processingError.Payload),
		"additionalInputs", processingError.AdditionalInputs,
	)

	return nil
}
