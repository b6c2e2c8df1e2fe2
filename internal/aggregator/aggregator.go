package aggregator

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/openshift-assisted/ansible-receipts/internal/channel"
	"github.com/openshift-assisted/ansible-receipts/internal/common"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

const categoryInvalidEvent = "invalid_event"

var ErrFinalized = errors.New("aggregate already finalized")

// Aggregator folds task events into one receipt per host.
// It is driven by a single goroutine and holds no lock.
type Aggregator struct {
	receipts  entity.Aggregate
	finalized bool

	logger *logr.Logger
}

func New() *Aggregator {
	return &Aggregator{
		receipts: make(entity.Aggregate),
	}
}

func (a *Aggregator) WithLogger(logger logr.Logger) *Aggregator {
	a.logger = &logger

	return a
}

// Process folds one event. Sentinels leave the receipts untouched.
func (a *Aggregator) Process(ctx context.Context, event entity.Event) error {
	if a.finalized {
		return ErrFinalized
	}

	if event.Kind != entity.EventKindTask {
		return nil
	}

	if !event.State.IsPrimary() {
		return common.NewErrProcessingError(entity.ErrUnknownState, categoryInvalidEvent, nil, "cannot fold state %q for %s", event.State, event.Host)
	}

	receipt := a.receipt(event.Host)

	if event.TaskName != nil {
		receipt.Tasks = append(receipt.Tasks, entity.TaskEntry{
			Name:   *event.TaskName,
			State:  event.State,
			Result: event.Result,
		})

		receipt.Stats[event.State]++

		if event.Changed() {
			receipt.Stats[entity.TaskStateChanged]++
		}
	}

	// Facts are harvested from ordinary ok results, so this applies on top of the task bookkeeping
	facts, ok := event.Facts()
	if ok {
		for k, v := range facts {
			receipt.Facts[k] = v
		}

		a.logInfo(3, "Facts merged", "host", event.Host, "keys", len(facts))
	}

	return nil
}

// Finalize freezes the receipts and returns them. Further folds fail with ErrFinalized.
func (a *Aggregator) Finalize() entity.Aggregate {
	a.finalized = true

	a.logInfo(1, "Aggregate finalized", "hosts", a.receipts.Hosts())

	return a.receipts
}

func (a *Aggregator) receipt(host string) *entity.Receipt {
	ret, ok := a.receipts[host]
	if !ok {
		ret = entity.NewReceipt()
		a.receipts[host] = ret

		a.logInfo(2, "New host observed", "host", host)
	}

	return ret
}

func (a *Aggregator) logInfo(level int, msg string, keysAndValues ...any) {
	if a.logger == nil {
		return
	}

	a.logger.V(level).Info(msg, keysAndValues...)
}

// Drain passes every event read from src to stage until the until sentinel shows up.
// Other sentinels are skipped. It returns the number of events handed to stage.
func Drain(ctx context.Context, src channel.Receiver, stage pipeline.Processing[entity.Event], until entity.SentinelKind) (int, error) {
	count := 0

	for {
		event, err := src.Receive(ctx)
		if err != nil {
			return count, fmt.Errorf("failed to receive event: %w", err)
		}

		if event.IsSentinel(until) {
			return count, nil
		}

		if event.Kind == entity.EventKindSentinel {
			continue
		}

		err = stage.Process(ctx, event)
		if err != nil {
			return count, fmt.Errorf("failed to fold event for %s: %w", event.Host, err)
		}

		count++
	}
}
