// Package producer turns task notifications of one worker into events.
//
// A Producer owns the "current task" of its worker: it is set by TaskStart and attached to every
// outcome until the next TaskStart. Producers are not safe for concurrent use, each worker process
// (or goroutine) builds its own.
package producer

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/openshift-assisted/ansible-receipts/internal/channel"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
)

var (
	ErrDone   = errors.New("producer already done")
	ErrBroken = errors.New("producer lost an event")
)

type Producer struct {
	id     string
	sender channel.Sender

	currentTask *string
	sent        int
	done        bool
	// broken keeps the first failed send: the stream has a gap and must not be closed
	broken error

	logger *logr.Logger
}

func New(id string, sender channel.Sender) *Producer {
	return &Producer{
		id:     id,
		sender: sender,
	}
}

func (p *Producer) WithLogger(logger logr.Logger) *Producer {
	l := logger.WithValues("producer", p.id)
	p.logger = &l

	return p
}

func (p *Producer) ID() string {
	return p.id
}

// Sent returns the number of events sent so far, sentinel excluded.
func (p *Producer) Sent() int {
	return p.sent
}

// Err returns the send failure that broke the producer, if any.
func (p *Producer) Err() error {
	return p.broken
}

// Finished reports whether Done succeeded.
func (p *Producer) Finished() bool {
	return p.done
}

func (p *Producer) TaskStart(name string) {
	p.currentTask = &name

	p.logInfo(2, "Task started", "task", name)
}

func (p *Producer) CurrentTask() (string, bool) {
	if p.currentTask == nil {
		return "", false
	}

	return *p.currentTask, true
}

// OK records a successful outcome. Facts carried in res are merged into the host receipt as well.
func (p *Producer) OK(ctx context.Context, host string, res entity.Payload) error {
	return p.emit(ctx, host, entity.TaskStateOK, res)
}

// Failed records a failure, or a success when the task ignores errors.
func (p *Producer) Failed(ctx context.Context, host string, res entity.Payload, ignoreErrors bool) error {
	if ignoreErrors {
		return p.emit(ctx, host, entity.TaskStateOK, res)
	}

	return p.emit(ctx, host, entity.TaskStateFailed, res)
}

func (p *Producer) Skipped(ctx context.Context, host string, item interface{}) error {
	return p.emit(ctx, host, entity.TaskStateSkipped, entity.Payload{"item": item})
}

// Unreachable records an unreachable host, or a success when the task ignores errors.
func (p *Producer) Unreachable(ctx context.Context, host string, res entity.Payload, ignoreErrors bool) error {
	if ignoreErrors {
		return p.emit(ctx, host, entity.TaskStateOK, res)
	}

	return p.emit(ctx, host, entity.TaskStateUnreachable, res)
}

// FactsObserved registers host facts without recording a task.
func (p *Producer) FactsObserved(ctx context.Context, host string, facts map[string]interface{}) error {
	err := p.usable()
	if err != nil {
		return err
	}

	event, err := entity.NewFactsEvent(host, facts)
	if err != nil {
		return fmt.Errorf("failed to create facts event: %w", err)
	}

	return p.send(ctx, event)
}

// Done sends the producer sentinel. No event can be sent afterwards.
// A producer broken by a failed send refuses to close its stream.
func (p *Producer) Done(ctx context.Context) error {
	err := p.usable()
	if err != nil {
		return err
	}

	err = p.sender.Send(ctx, entity.NewProducerSentinel(p.id))
	if err != nil {
		p.broken = err

		return fmt.Errorf("failed to send producer sentinel: %w", err)
	}

	p.done = true

	p.logInfo(1, "Producer done", "events", p.sent)

	return nil
}

func (p *Producer) emit(ctx context.Context, host string, state entity.TaskState, res entity.Payload) error {
	err := p.usable()
	if err != nil {
		return err
	}

	event, err := entity.NewTaskEvent(host, p.currentTask, state, res)
	if err != nil {
		return fmt.Errorf("failed to create %s event: %w", state, err)
	}

	return p.send(ctx, event)
}

func (p *Producer) usable() error {
	if p.broken != nil {
		return fmt.Errorf("%w: %w", ErrBroken, p.broken)
	}

	if p.done {
		return ErrDone
	}

	return nil
}

func (p *Producer) send(ctx context.Context, event entity.Event) error {
	err := p.sender.Send(ctx, event)
	if err != nil {
		p.broken = err

		return fmt.Errorf("failed to send event for %s: %w", event.Host, err)
	}

	p.sent++

	p.logInfo(3, "Event sent", "host", event.Host, "state", event.State)

	return nil
}

func (p *Producer) logInfo(level int, msg string, keysAndValues ...any) {
	if p.logger == nil {
		return
	}

	p.logger.V(level).Info(msg, keysAndValues...)
}
