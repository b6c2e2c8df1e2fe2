package processing_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshift-assisted/ansible-receipts/internal/channel"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/internal/processing"
	"github.com/openshift-assisted/ansible-receipts/internal/producer"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

func notification(t *testing.T, raw string) processing.Notification {
	ret := processing.Notification{}
	require.NoError(t, json.Unmarshal([]byte(raw), &ret))

	return ret
}

func receiveAll(t *testing.T, c *channel.MemoryChannel) []entity.Event {
	ret := []entity.Event{}

	for c.Len() > 0 {
		event, err := c.Receive(context.Background())
		require.NoError(t, err)

		ret = append(ret, event)
	}

	return ret
}

func TestCallbacksDispatch(t *testing.T) {
	ctx := context.Background()
	c := channel.NewMemoryChannel()
	callbacks := processing.NewCallbacks(producer.New("worker-1", c))

	lines := []string{
		`{"callback":"playbook_on_play_start","args":{"name":"site"}}`,
		`{"callback":"facts_observed","args":{"host":"A","facts":{"os":"linux"}}}`,
		`{"callback":"playbook_on_task_start","args":{"name":"install","is_conditional":false}}`,
		`{"callback":"runner_on_ok","args":{"host":"A","res":{"changed":true}}}`,
		`{"callback":"runner_on_failed","args":{"host":"B","res":{},"ignore_errors":true}}`,
		`{"callback":"runner_on_unreachable","args":{"host":"C","res":{"msg":"timeout"}}}`,
		`{"callback":"playbook_on_task_start","args":{"name":"cleanup"}}`,
		`{"callback":"runner_on_skipped","args":{"host":"A","item":"x"}}`,
		`{"callback":"playbook_on_stats","args":{}}`,
	}

	for _, line := range lines {
		require.NoError(t, callbacks.Process(ctx, notification(t, line)), line)
	}

	events := receiveAll(t, c)
	require.Len(t, events, 6)

	assert.Nil(t, events[0].TaskName)

	assert.Equal(t, "install", *events[1].TaskName)
	assert.Equal(t, entity.TaskStateOK, events[1].State)
	assert.True(t, events[1].Changed())

	assert.Equal(t, "B", events[2].Host)
	assert.Equal(t, entity.TaskStateOK, events[2].State, "ignored failure is ok")

	assert.Equal(t, entity.TaskStateUnreachable, events[3].State)

	assert.Equal(t, "cleanup", *events[4].TaskName)
	assert.Equal(t, entity.Payload{"item": "x"}, events[4].Result)

	assert.True(t, events[5].IsSentinel(entity.SentinelProducer))
	assert.Equal(t, "worker-1", events[5].Producer)
}

func TestCallbacksErrors(t *testing.T) {
	type testCase struct {
		name     string
		line     string
		category string
	}

	cases := []testCase{
		{name: "unknown callback", line: `{"callback":"runner_on_retry","args":{}}`, category: "unknown_callback"},
		{name: "missing host", line: `{"callback":"runner_on_ok","args":{"res":{}}}`, category: "invalid_notification"},
		{name: "invalid res", line: `{"callback":"runner_on_ok","args":{"host":"a","res":"done"}}`, category: "invalid_notification"},
		{name: "invalid ignore_errors", line: `{"callback":"runner_on_failed","args":{"host":"a","ignore_errors":"yes"}}`, category: "invalid_notification"},
		{name: "missing task name", line: `{"callback":"playbook_on_task_start","args":{}}`, category: "invalid_notification"},
		{name: "invalid facts", line: `{"callback":"facts_observed","args":{"host":"a","facts":[1]}}`, category: "invalid_notification"},
	}

	for i := range cases {
		c := cases[i]

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			callbacks := processing.NewCallbacks(producer.New("worker-1", channel.NewMemoryChannel()))

			err := callbacks.Process(context.Background(), notification(t, c.line))
			require.Error(t, err)

			pErr := pipeline.ErrProcessingError{}
			require.True(t, errors.As(err, &pErr))
			assert.Equal(t, c.category, pErr.Category)
		})
	}
}

func TestCallbacksAfterStats(t *testing.T) {
	ctx := context.Background()
	callbacks := processing.NewCallbacks(producer.New("worker-1", channel.NewMemoryChannel()))

	require.NoError(t, callbacks.Process(ctx, notification(t, `{"callback":"playbook_on_stats"}`)))

	err := callbacks.Process(ctx, notification(t, `{"callback":"runner_on_ok","args":{"host":"a"}}`))
	require.ErrorIs(t, err, producer.ErrDone)
}

// cutSender stops forwarding once limit events went through.
type cutSender struct {
	inner channel.Sender
	limit int
	sent  int
}

var errConnectionLost = errors.New("connection lost")

func (s *cutSender) Send(ctx context.Context, event entity.Event) error {
	if s.sent >= s.limit {
		return errConnectionLost
	}

	s.sent++

	return s.inner.Send(ctx, event)
}

func TestCallbacksStopOnLostEvent(t *testing.T) {
	ctx := context.Background()
	c := channel.NewMemoryChannel()
	p := producer.New("worker-1", &cutSender{inner: c, limit: 1})

	input := strings.Join([]string{
		`{"callback":"playbook_on_task_start","args":{"name":"install"}}`,
		`{"callback":"runner_on_ok","args":{"host":"A","res":{}}}`,
		`{"callback":"runner_on_ok","args":{"host":"B","res":{}}}`,
		`{"callback":"runner_on_ok","args":{"host":"C","res":{}}}`,
		`{"callback":"playbook_on_stats","args":{}}`,
	}, "\n")

	var reported []pipeline.ErrProcessingError
	errProcessing := pipeline.ProcessingFunc[pipeline.ErrProcessingError](func(_ context.Context, pErr pipeline.ErrProcessingError) error {
		reported = append(reported, pErr)

		return nil
	})

	handler := pipeline.NewJSONLineHandler[processing.Notification]("stdin", processing.NewCallbacks(p), errProcessing)

	processed, err := handler.Consume(ctx, strings.NewReader(input))
	require.ErrorIs(t, err, pipeline.ErrFatalError)
	require.ErrorIs(t, err, errConnectionLost)

	assert.Equal(t, 2, processed, "task start and the first outcome")
	assert.False(t, p.Finished(), "no producer sentinel after a lost event")

	require.Len(t, reported, 1)
	assert.Equal(t, "stdin:3", reported[0].Source)

	events := receiveAll(t, c)
	require.Len(t, events, 1)
	assert.Equal(t, "A", events[0].Host)
}

func TestCallbacksSkipInvalidNotifications(t *testing.T) {
	ctx := context.Background()
	c := channel.NewMemoryChannel()
	p := producer.New("worker-1", c)

	input := strings.Join([]string{
		`{"callback":"runner_on_ok","args":{"res":{}}}`,
		`{"callback":"runner_on_retry","args":{}}`,
		`{"callback":"runner_on_ok","args":{"host":"A","res":{}}}`,
		`{"callback":"playbook_on_stats","args":{}}`,
	}, "\n")

	handler := pipeline.NewJSONLineHandler[processing.Notification]("stdin", processing.NewCallbacks(p), nil)

	processed, err := handler.Consume(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.True(t, p.Finished())
	assert.Len(t, receiveAll(t, c), 2)
}
