// Package run wires a collector and an aggregator into one run and writes its receipts.
package run

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/openshift-assisted/ansible-receipts/internal/aggregator"
	"github.com/openshift-assisted/ansible-receipts/internal/channel"
	"github.com/openshift-assisted/ansible-receipts/internal/collector"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/repo"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

// FoldDecorator wraps the aggregator before it is driven, typically with metrics.
type FoldDecorator func(pipeline.Processing[entity.Event]) (pipeline.Processing[entity.Event], error)

func noDecoration(p pipeline.Processing[entity.Event]) (pipeline.Processing[entity.Event], error) {
	return p, nil
}

type Controller struct {
	inbound channel.Receiver
	writer  repo.ReceiptWriter

	decorate FoldDecorator
	gauge    prometheus.Gauge

	logger *logr.Logger
}

func NewController(inbound channel.Receiver, writer repo.ReceiptWriter) *Controller {
	return &Controller{
		inbound:  inbound,
		writer:   writer,
		decorate: noDecoration,
	}
}

func (c *Controller) WithLogger(logger logr.Logger) *Controller {
	c.logger = &logger

	return c
}

func (c *Controller) WithFoldDecorator(decorate FoldDecorator) *Controller {
	c.decorate = decorate

	return c
}

// WithBufferGauge is handed over to the collector.
func (c *Controller) WithBufferGauge(gauge prometheus.Gauge) *Controller {
	c.gauge = gauge

	return c
}

// Run relays the inbound events through a collector, folds them once the run is complete
// and writes the receipts. Nothing is written when an error occurs.
func (c *Controller) Run(ctx context.Context) (entity.Aggregate, error) {
	agg, fold, err := c.newFold()
	if err != nil {
		return nil, err
	}

	relay := channel.NewMemoryChannel()
	defer relay.Close()

	coll := collector.New(c.inbound, relay)
	if c.logger != nil {
		coll = coll.WithLogger(c.logger.WithName("collector"))
	}

	if c.gauge != nil {
		coll = coll.WithBufferGauge(c.gauge)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return coll.Run(groupCtx)
	})

	folded := 0

	group.Go(func() error {
		count, drainErr := aggregator.Drain(groupCtx, relay, fold, entity.SentinelRelay)
		folded = count

		return drainErr
	})

	// The collector must be joined before the receipts are finalized
	err = group.Wait()
	if err != nil {
		return nil, fmt.Errorf("run interrupted in state %s after %d folded events: %w", coll.State(), folded, err)
	}

	c.logInfo(1, "Run relayed", "producers", coll.ProducersDone(), "events", folded)

	return c.finalize(ctx, agg)
}

// RunLocal folds the inbound events directly until the run sentinel, without a collector.
func (c *Controller) RunLocal(ctx context.Context) (entity.Aggregate, error) {
	agg, fold, err := c.newFold()
	if err != nil {
		return nil, err
	}

	folded, err := aggregator.Drain(ctx, c.inbound, fold, entity.SentinelRun)
	if err != nil {
		return nil, fmt.Errorf("local run interrupted after %d folded events: %w", folded, err)
	}

	c.logInfo(1, "Run folded", "events", folded)

	return c.finalize(ctx, agg)
}

func (c *Controller) newFold() (*aggregator.Aggregator, pipeline.Processing[entity.Event], error) {
	agg := aggregator.New()
	if c.logger != nil {
		agg = agg.WithLogger(c.logger.WithName("aggregator"))
	}

	fold, err := c.decorate(agg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decorate fold: %w", err)
	}

	return agg, fold, nil
}

func (c *Controller) finalize(ctx context.Context, agg *aggregator.Aggregator) (entity.Aggregate, error) {
	receipts := agg.Finalize()

	err := c.writer.WriteReceipts(ctx, receipts)
	if err != nil {
		return nil, fmt.Errorf("failed to write receipts: %w", err)
	}

	c.logInfo(0, "Receipts finalized", "hosts", receipts.Hosts())

	return receipts, nil
}

func (c *Controller) logInfo(level int, msg string, keysAndValues ...any) {
	if c.logger == nil {
		return
	}

	c.logger.V(level).Info(msg, keysAndValues...)
}

// Complete signals that every producer of the run has finished.
func Complete(ctx context.Context, sender channel.Sender) error {
	err := sender.Send(ctx, entity.NewRunSentinel())
	if err != nil {
		return fmt.Errorf("failed to send run sentinel: %w", err)
	}

	return nil
}
