package channel

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/openshift-assisted/ansible-receipts/internal/common"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
)

const (
	categoryValkeyClientError = "valkey_client"
	categoryValkeyInternal    = "valkey_internal_error"

	defaultPollTimeout = time.Second
)

// ValkeyChannel uses a valkey list as a cross-process queue: producers RPUSH, the consumer BLPOP.
// Every producer appends in program order, so per-producer FIFO holds.
type ValkeyChannel struct {
	client valkey.Client
	key    string

	pollTimeout time.Duration
}

func NewValkeyChannel(client valkey.Client, key string, pollTimeout time.Duration) ValkeyChannel {
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}

	return ValkeyChannel{
		client:      client,
		key:         key,
		pollTimeout: pollTimeout,
	}
}

func (c ValkeyChannel) Send(ctx context.Context, event entity.Event) error {
	data, err := encode(event)
	if err != nil {
		return err
	}

	command := c.client.B().Rpush().Key(c.key).Element(string(data)).Build()

	err = c.client.Do(ctx, command).Error()
	if err != nil {
		return common.NewMaybeRetryableErrProcessingError(isRetryable(err), err, categoryValkeyClientError, nil, "failed to push on %s", c.key)
	}

	return nil
}

// Receive polls with BLPOP so that context cancellation is noticed at least every poll timeout.
func (c ValkeyChannel) Receive(ctx context.Context) (entity.Event, error) {
	for {
		err := ctx.Err()
		if err != nil {
			return entity.Event{}, err
		}

		command := c.client.B().Blpop().Key(c.key).Timeout(c.pollTimeout.Seconds()).Build()

		resp := c.client.Do(ctx, command)

		err = resp.Error()
		if valkey.IsValkeyNil(err) { // timeout, nothing to read yet
			continue
		}

		if err != nil {
			if ctx.Err() != nil {
				return entity.Event{}, ctx.Err()
			}

			return entity.Event{}, common.NewMaybeRetryableErrProcessingError(isRetryable(err), err, categoryValkeyClientError, nil, "failed to pop from %s", c.key)
		}

		values, err := resp.AsStrSlice()
		if err != nil {
			return entity.Event{}, common.NewErrProcessingError(err, categoryValkeyInternal, nil, "unexpected blpop response type for %s", c.key)
		}

		// BLPOP replies with [key, element]
		if len(values) != 2 {
			return entity.Event{}, common.NewErrProcessingError(fmt.Errorf("got %d values", len(values)), categoryValkeyInternal, nil, "unexpected blpop response for %s", c.key)
		}

		return decode(c.key, []byte(values[1]))
	}
}

// Len returns the number of events waiting in the list.
func (c ValkeyChannel) Len(ctx context.Context) (int64, error) {
	command := c.client.B().Llen().Key(c.key).Build()

	ret, err := c.client.Do(ctx, command).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("failed to get length of %s: %w", c.key, err)
	}

	return ret, nil
}

func isRetryable(err error) bool {
	// Network error
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	// Valkey specfic error
	vErr, isValkeyError := valkey.IsValkeyErr(err)
	if !isValkeyError { // Retryable errors should have been handled before this block
		return false
	}

	return vErr.IsTryAgain()
}
