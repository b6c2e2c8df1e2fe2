package processing_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/internal/processing"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

func TestCountEvents(t *testing.T) {
	registry := prometheus.NewPedanticRegistry()

	errFold := errors.New("fold failed")
	fail := false

	inner := pipeline.ProcessingFunc[entity.Event](func(context.Context, entity.Event) error {
		if fail {
			return errFold
		}

		return nil
	})

	counter, err := processing.NewCountEvents(inner, registry, pipeline.MetricsConfig{Namespace: "test"})
	require.NoError(t, err)

	name := "install"

	changed, err := entity.NewTaskEvent("a", &name, entity.TaskStateOK, entity.Payload{"changed": true})
	require.NoError(t, err)

	skipped, err := entity.NewTaskEvent("a", &name, entity.TaskStateSkipped, nil)
	require.NoError(t, err)

	facts, err := entity.NewFactsEvent("a", map[string]interface{}{"os": "linux"})
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, counter.Process(ctx, changed))
	require.NoError(t, counter.Process(ctx, skipped))
	require.NoError(t, counter.Process(ctx, facts))

	fail = true
	require.ErrorIs(t, counter.Process(ctx, skipped), errFold)

	expected := `
# HELP test_events_total Folded events by kind and state.
# TYPE test_events_total counter
test_events_total{kind="facts",state="ok"} 1
test_events_total{kind="task",state="changed"} 1
test_events_total{kind="task",state="ok"} 1
test_events_total{kind="task",state="skipped"} 1
`

	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_events_total"))
}
