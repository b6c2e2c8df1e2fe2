package channel

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
)

// RunChannel scopes a shared transport to one run: sent events are stamped with the run id and
// received events of any other run, sentinels included, are dropped.
// A kafka partition replayed from the oldest offset, or a valkey list left over by an aborted run,
// therefore never leaks into the receipts.
type RunChannel struct {
	inner Channel
	runID string

	dropped int

	logger *logr.Logger
}

func NewRunChannel(inner Channel, runID string) *RunChannel {
	return &RunChannel{
		inner: inner,
		runID: runID,
	}
}

func (c *RunChannel) WithLogger(logger logr.Logger) *RunChannel {
	l := logger.WithValues("run", c.runID)
	c.logger = &l

	return c
}

func (c *RunChannel) Send(ctx context.Context, event entity.Event) error {
	return c.inner.Send(ctx, event.InRun(c.runID))
}

func (c *RunChannel) Receive(ctx context.Context) (entity.Event, error) {
	for {
		event, err := c.inner.Receive(ctx)
		if err != nil {
			return event, err
		}

		if event.Run == c.runID {
			return event, nil
		}

		c.dropped++

		if c.logger != nil {
			c.logger.V(2).Info("Dropping event of another run", "eventRun", event.Run, "kind", event.Kind, "dropped", c.dropped)
		}
	}
}

// Dropped returns the number of received events which belonged to another run.
func (c *RunChannel) Dropped() int {
	return c.dropped
}
