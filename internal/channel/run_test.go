package channel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshift-assisted/ansible-receipts/internal/channel"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
)

func TestRunChannelStampsSentEvents(t *testing.T) {
	ctx := context.Background()
	shared := channel.NewMemoryChannel()
	c := channel.NewRunChannel(shared, "run-2")

	require.NoError(t, c.Send(ctx, taskEvent(t, "a", "install")))
	require.NoError(t, c.Send(ctx, entity.NewRunSentinel()))

	for range 2 {
		event, err := shared.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, "run-2", event.Run)
	}
}

func TestRunChannelDropsOtherRuns(t *testing.T) {
	ctx := context.Background()
	shared := channel.NewMemoryChannel()

	// a partition replayed from the oldest offset: a finished run, leftovers without run, then ours
	previous := channel.NewRunChannel(shared, "run-1")
	require.NoError(t, previous.Send(ctx, taskEvent(t, "stale", "install")))
	require.NoError(t, previous.Send(ctx, entity.NewProducerSentinel("worker-1")))
	require.NoError(t, previous.Send(ctx, entity.NewRunSentinel()))
	require.NoError(t, shared.Send(ctx, taskEvent(t, "unscoped", "install")))

	current := channel.NewRunChannel(shared, "run-2")
	require.NoError(t, current.Send(ctx, taskEvent(t, "a", "install")))
	require.NoError(t, current.Send(ctx, entity.NewRunSentinel()))

	event, err := current.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", event.Host)

	event, err = current.Receive(ctx)
	require.NoError(t, err)
	assert.True(t, event.IsSentinel(entity.SentinelRun))
	assert.Equal(t, "run-2", event.Run)

	assert.Equal(t, 4, current.Dropped())
}

func TestRunChannelPassesErrors(t *testing.T) {
	shared := channel.NewMemoryChannel()
	shared.Close()

	_, err := channel.NewRunChannel(shared, "run-2").Receive(context.Background())
	assert.ErrorIs(t, err, channel.ErrClosed)
}
