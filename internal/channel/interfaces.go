package channel

import (
	"context"
	"errors"

	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
)

var ErrClosed = errors.New("channel closed")

// Sender must not block indefinitely.
type Sender interface {
	Send(ctx context.Context, event entity.Event) error
}

// Receiver blocks until an event is available or ctx is done.
// Implementations assume a single consumer.
type Receiver interface {
	Receive(ctx context.Context) (entity.Event, error)
}

type Channel interface {
	Sender
	Receiver
}
