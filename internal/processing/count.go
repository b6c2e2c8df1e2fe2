package processing

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

type CountEvents struct {
	counter *prometheus.CounterVec
	inner   pipeline.Processing[entity.Event]
}

func NewCountEvents(p pipeline.Processing[entity.Event], registry prometheus.Registerer, config pipeline.MetricsConfig) (pipeline.Processing[entity.Event], error) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "events_total",
		Help:      "Folded events by kind and state.",
	}, []string{"kind", "state"})

	err := registry.Register(counter)
	if err != nil {
		return nil, fmt.Errorf("failed to register metric: %w", err)
	}

	ret := CountEvents{
		counter: counter,
		inner:   p,
	}

	return ret, nil
}

func (p CountEvents) Process(ctx context.Context, event entity.Event) error {
	err := p.inner.Process(ctx, event)
	if err != nil {
		return err // Count only successfully folded events
	}

	kind := string(event.Kind)
	if event.Kind == entity.EventKindTask && event.TaskName == nil {
		kind = "facts"
	}

	p.counter.WithLabelValues(kind, string(event.State)).Inc()

	if event.TaskName != nil && event.Changed() {
		p.counter.WithLabelValues(kind, string(entity.TaskStateChanged)).Inc()
	}

	return nil
}
