package collector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openshift-assisted/ansible-receipts/internal/channel"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
)

var ErrNotRunning = errors.New("collector is not running")

type State int32

const (
	StateRunning State = iota
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Collector buffers every task event read from inbound until the run sentinel arrives,
// then replays the buffer in receipt order on outbound and closes it with the relay sentinel.
type Collector struct {
	inbound  channel.Receiver
	outbound channel.Sender

	buffer    []entity.Event
	producers map[string]struct{}

	started       atomic.Bool
	state         atomic.Int32
	producersDone atomic.Int64

	gauge  prometheus.Gauge
	logger *logr.Logger
}

func New(inbound channel.Receiver, outbound channel.Sender) *Collector {
	return &Collector{
		inbound:   inbound,
		outbound:  outbound,
		producers: make(map[string]struct{}),
	}
}

func (c *Collector) WithLogger(logger logr.Logger) *Collector {
	c.logger = &logger

	return c
}

// WithBufferGauge reports the number of buffered events on gauge.
func (c *Collector) WithBufferGauge(gauge prometheus.Gauge) *Collector {
	c.gauge = gauge

	return c
}

func (c *Collector) State() State {
	return State(c.state.Load())
}

// ProducersDone returns the number of distinct producers which sent their sentinel.
func (c *Collector) ProducersDone() int {
	return int(c.producersDone.Load())
}

// Run blocks until the buffer has been relayed or an error occurs. It can only be called once.
func (c *Collector) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrNotRunning
	}

	c.logInfo(1, "Collector running")

	for {
		event, err := c.inbound.Receive(ctx)
		if err != nil {
			return fmt.Errorf("failed to receive event (%d buffered): %w", len(c.buffer), err)
		}

		switch {
		case event.IsSentinel(entity.SentinelRun):
			return c.drain(ctx)
		case event.IsSentinel(entity.SentinelProducer):
			c.producerDone(event.Producer)
		case event.Kind == entity.EventKindSentinel:
			c.logInfo(1, "Ignoring unexpected sentinel", "sentinel", event.Sentinel)
		default:
			c.buffer = append(c.buffer, event)
			c.setGauge(len(c.buffer))
		}
	}
}

func (c *Collector) drain(ctx context.Context) error {
	c.state.Store(int32(StateDraining))

	c.logInfo(1, "Collector draining", "events", len(c.buffer), "producers", c.ProducersDone())

	for i, event := range c.buffer {
		err := c.outbound.Send(ctx, event)
		if err != nil {
			return fmt.Errorf("failed to relay event %d/%d: %w", i+1, len(c.buffer), err)
		}
	}

	relayed := len(c.buffer)

	c.buffer = nil
	c.setGauge(0)

	err := c.outbound.Send(ctx, entity.NewRelaySentinel())
	if err != nil {
		return fmt.Errorf("failed to send relay sentinel: %w", err)
	}

	c.state.Store(int32(StateDone))

	c.logInfo(1, "Collector done", "relayed", relayed)

	return nil
}

func (c *Collector) producerDone(producer string) {
	_, known := c.producers[producer]
	if known {
		c.logInfo(1, "Duplicate producer sentinel", "producer", producer)

		return
	}

	c.producers[producer] = struct{}{}
	c.producersDone.Add(1)

	c.logInfo(2, "Producer finished", "producer", producer, "producers", len(c.producers))
}

func (c *Collector) setGauge(value int) {
	if c.gauge == nil {
		return
	}

	c.gauge.Set(float64(value))
}

func (c *Collector) logInfo(level int, msg string, keysAndValues ...any) {
	if c.logger == nil {
		return
	}

	c.logger.V(level).Info(msg, keysAndValues...)
}
