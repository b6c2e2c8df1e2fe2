package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/openshift-assisted/ansible-receipts/internal/common"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
)

const categoryKafkaClientError = "kafka_client"

var ErrNotConfigured = errors.New("channel side not configured")

// KafkaChannel carries events through a single partition so that the consumer sees one total order.
// The producer must be created with a manual partitioner.
type KafkaChannel struct {
	producer sarama.SyncProducer
	consumer sarama.Consumer

	topic     string
	partition int32
	offset    int64

	partitionConsumer sarama.PartitionConsumer
}

// NewKafkaChannel creates a channel, producer or consumer may be nil for a send-only or receive-only side.
func NewKafkaChannel(producer sarama.SyncProducer, consumer sarama.Consumer, topic string, partition int32, offset int64) *KafkaChannel {
	return &KafkaChannel{
		producer:  producer,
		consumer:  consumer,
		topic:     topic,
		partition: partition,
		offset:    offset,
	}
}

func (c *KafkaChannel) Send(ctx context.Context, event entity.Event) error {
	if c.producer == nil {
		return ErrNotConfigured
	}

	data, err := encode(event)
	if err != nil {
		return err
	}

	key := event.Host
	if event.Kind == entity.EventKindSentinel {
		key = event.Producer
	}

	msg := &sarama.ProducerMessage{
		Topic:     c.topic,
		Partition: c.partition,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(data),
	}

	_, _, err = c.producer.SendMessage(msg)
	if err != nil {
		return common.NewMaybeRetryableErrProcessingError(isKafkaRetryable(err), err, categoryKafkaClientError, nil, "failed to produce on %s/%d", c.topic, c.partition)
	}

	return nil
}

func (c *KafkaChannel) Receive(ctx context.Context) (entity.Event, error) {
	if c.consumer == nil {
		return entity.Event{}, ErrNotConfigured
	}

	if c.partitionConsumer == nil {
		pc, err := c.consumer.ConsumePartition(c.topic, c.partition, c.offset)
		if err != nil {
			return entity.Event{}, common.NewMaybeRetryableErrProcessingError(isKafkaRetryable(err), err, categoryKafkaClientError, nil, "failed to consume %s/%d", c.topic, c.partition)
		}

		c.partitionConsumer = pc
	}

	select {
	case <-ctx.Done():
		return entity.Event{}, ctx.Err()
	case msg, ok := <-c.partitionConsumer.Messages():
		if !ok {
			return entity.Event{}, ErrClosed
		}

		return decode(fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset), msg.Value)
	case consumerErr, ok := <-c.partitionConsumer.Errors():
		if !ok {
			return entity.Event{}, ErrClosed
		}

		return entity.Event{}, common.NewMaybeRetryableErrProcessingError(isKafkaRetryable(consumerErr.Err), consumerErr, categoryKafkaClientError, nil, "failed to read %s/%d", c.topic, c.partition)
	}
}

// Close stops the partition consumer, clients are owned by the caller.
func (c *KafkaChannel) Close() error {
	if c.partitionConsumer == nil {
		return nil
	}

	err := c.partitionConsumer.Close()
	if err != nil {
		return fmt.Errorf("failed to close partition consumer: %w", err)
	}

	return nil
}

func isKafkaRetryable(err error) bool {
	for _, retryable := range []error{
		sarama.ErrOutOfBrokers,
		sarama.ErrNotLeaderForPartition,
		sarama.ErrLeaderNotAvailable,
		sarama.ErrRequestTimedOut,
		sarama.ErrNotEnoughReplicas,
	} {
		if errors.Is(err, retryable) {
			return true
		}
	}

	return false
}
