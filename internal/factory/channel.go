package factory

import (
	"context"
	"errors"
	"fmt"

	"github.com/openshift-assisted/ansible-receipts/internal/channel"
	"github.com/openshift-assisted/ansible-receipts/internal/common"
	"github.com/openshift-assisted/ansible-receipts/internal/config"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/internal/log"
)

type Side int

const (
	// SideSend is used by emit and complete.
	SideSend Side = iota
	// SideReceive is used by collect.
	SideReceive
)

// CreateChannel connects to the configured transport, scoped to conf.Run.ID.
// Sends are retried on transient failures.
func CreateChannel(ctx context.Context, conf config.Config, side Side) (channel.Channel, common.CloseFunc, error) {
	var (
		c         channel.Channel
		closeFunc common.CloseFunc
		err       error
	)

	switch conf.Transport.Type {
	case config.TransportTypeValkey:
		c, closeFunc, err = createValkeyChannel(ctx, conf)
	case config.TransportTypeKafka:
		c, closeFunc, err = createKafkaChannel(conf, side)
	default:
		return nil, nil, fmt.Errorf("unknown transport type: %q", conf.Transport.Type)
	}

	if err != nil {
		return nil, nil, err
	}

	return channel.NewRunChannel(c, conf.Run.ID).WithLogger(log.Logger().WithName("channel")), closeFunc, nil
}

// ValkeyChannelKey is the list holding the events of one run.
func ValkeyChannelKey(conf config.Config) string {
	return fmt.Sprintf("%s:%s", conf.Transport.Valkey.Key, conf.Run.ID)
}

func createValkeyChannel(ctx context.Context, conf config.Config) (channel.Channel, common.CloseFunc, error) {
	client, closeFunc, err := CreateValkeyClient(ctx, conf.Transport.Valkey.Valkey)
	if err != nil {
		return nil, nil, err
	}

	c := channel.NewValkeyChannel(client, ValkeyChannelKey(conf), conf.Transport.Valkey.PollTimeout)

	return retryingChannel{Channel: c, sender: channel.NewRetrySender(c, retryConfig(conf.Retry))}, closeFunc, nil
}

func createKafkaChannel(conf config.Config, side Side) (channel.Channel, common.CloseFunc, error) {
	kafkaConf := conf.Transport.Kafka

	if side == SideSend {
		producer, err := CreateKafkaProducer(kafkaConf)
		if err != nil {
			return nil, nil, err
		}

		c := channel.NewKafkaChannel(producer, nil, kafkaConf.Channel.Topic, kafkaConf.Channel.Partition, KafkaOffset(kafkaConf.Channel))

		closeFunc := func(context.Context) error {
			return errors.Join(c.Close(), producer.Close())
		}

		return retryingChannel{Channel: c, sender: channel.NewRetrySender(c, retryConfig(conf.Retry))}, closeFunc, nil
	}

	consumer, err := CreateKafkaConsumer(kafkaConf)
	if err != nil {
		return nil, nil, err
	}

	c := channel.NewKafkaChannel(nil, consumer, kafkaConf.Channel.Topic, kafkaConf.Channel.Partition, KafkaOffset(kafkaConf.Channel))

	closeFunc := func(context.Context) error {
		return errors.Join(c.Close(), consumer.Close())
	}

	return c, closeFunc, nil
}

type retryingChannel struct {
	channel.Channel

	sender channel.Sender
}

func (c retryingChannel) Send(ctx context.Context, event entity.Event) error {
	return c.sender.Send(ctx, event)
}
