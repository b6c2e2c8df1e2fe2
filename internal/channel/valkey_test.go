package channel_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/valkey-io/valkey-go"

	"github.com/openshift-assisted/ansible-receipts/internal/channel"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

// Helper

func startValkey(t *testing.T) testcontainers.Container {
	req := testcontainers.ContainerRequest{
		Image:        "quay.io/sclorg/valkey-7-c10s:bf91acf0827dc5db216164aafe3d34beb245dcec",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections tcp"),
	}
	ret, err := testcontainers.GenericContainer(context.Background(), testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})

	testcontainers.CleanupContainer(t, ret)

	require.NoError(t, err, "failed to start valkey instance")

	return ret
}

func createValkeyClient(t *testing.T, container testcontainers.Container) valkey.Client {
	endpoint, err := container.Endpoint(context.Background(), "")
	require.NoError(t, err, "failed to get valkey endpoint")

	ret, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{endpoint}})
	require.NoError(t, err, "failed to create valkey client")

	t.Cleanup(ret.Close)

	return ret
}

// Test suite definition

type ValkeyChannelIntegrationTestSuite struct {
	suite.Suite

	client    valkey.Client
	channel   channel.ValkeyChannel
	container testcontainers.Container
}

func (s *ValkeyChannelIntegrationTestSuite) SetupSuite() {
	t := s.T()

	s.container = startValkey(t)
	s.client = createValkeyClient(t, s.container)
	s.channel = channel.NewValkeyChannel(s.client, "events", 100*time.Millisecond)
}

func (s *ValkeyChannelIntegrationTestSuite) TearDownTest() {
	ctx := context.Background()
	command := s.client.B().Flushall().Build()

	err := s.client.Do(ctx, command).Error()
	require.NoError(s.T(), err, "failed to clean valkey")
}

// Run test

func TestValkeyChannelIntegrationTestSuite(t *testing.T) {
	t.Parallel()

	suite.Run(t, new(ValkeyChannelIntegrationTestSuite))
}

// Test

func (s *ValkeyChannelIntegrationTestSuite) TestSendAndReceive() {
	ctx := context.Background()
	t := s.T()

	event := taskEvent(t, "a", "install")

	require.NoError(t, s.channel.Send(ctx, event))
	require.NoError(t, s.channel.Send(ctx, entity.NewRunSentinel()))

	length, err := s.channel.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)

	received, err := s.channel.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, event, received)

	received, err = s.channel.Receive(ctx)
	require.NoError(t, err)
	assert.True(t, received.IsSentinel(entity.SentinelRun))
}

func (s *ValkeyChannelIntegrationTestSuite) TestReceiveWaitsAcrossPolls() {
	ctx := context.Background()
	t := s.T()

	go func() {
		time.Sleep(350 * time.Millisecond)

		assert.NoError(t, s.channel.Send(ctx, entity.NewRunSentinel()))
	}()

	received, err := s.channel.Receive(ctx)
	require.NoError(t, err)
	assert.True(t, received.IsSentinel(entity.SentinelRun))
}

func (s *ValkeyChannelIntegrationTestSuite) TestReceiveHonoursContext() {
	t := s.T()

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	_, err := s.channel.Receive(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func (s *ValkeyChannelIntegrationTestSuite) TestInvalidPayload() {
	ctx := context.Background()
	t := s.T()

	command := s.client.B().Rpush().Key("events").Element(`{"kind":"task","host":"a","state":"rescued"}`).Build()
	require.NoError(t, s.client.Do(ctx, command).Error())

	_, err := s.channel.Receive(ctx)
	require.Error(t, err)

	pErr := pipeline.ErrProcessingError{}
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, pipeline.UnmarshalErrorCategory, pErr.Category)
	assert.Equal(t, "events", pErr.Source)
}

func (s *ValkeyChannelIntegrationTestSuite) TestConcurrentProducersKeepTheirOrder() {
	ctx := context.Background()
	t := s.T()

	producers := 4
	perProducer := 50

	wg := sync.WaitGroup{}

	for p := 0; p < producers; p++ {
		wg.Add(1)

		go func(host string) {
			defer wg.Done()

			for i := 0; i < perProducer; i++ {
				assert.NoError(t, s.channel.Send(ctx, taskEvent(t, host, fmt.Sprintf("%d", i))))
			}
		}(fmt.Sprintf("host-%d", p))
	}

	wg.Wait()

	next := map[string]int{}

	for i := 0; i < producers*perProducer; i++ {
		event, err := s.channel.Receive(ctx)
		require.NoError(t, err)

		require.Equal(t, fmt.Sprintf("%d", next[event.Host]), *event.TaskName)
		next[event.Host]++
	}
}

func TestValkeyChannelLosingConnection(t *testing.T) {
	t.Parallel()

	container := startValkey(t)
	client := createValkeyClient(t, container)
	c := channel.NewValkeyChannel(client, "events", 100*time.Millisecond)

	err := container.Terminate(context.Background())
	require.NoError(t, err, "failed to terminate valkey")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err = c.Send(ctx, entity.NewRunSentinel())
	require.Error(t, err, "send should fail")
}
