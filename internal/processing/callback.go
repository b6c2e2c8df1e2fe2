package processing

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/openshift-assisted/ansible-receipts/internal/common"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/internal/producer"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

const (
	categoryErrInvalidNotification = "invalid_notification"
	categoryErrUnknownCallback     = "unknown_callback"
)

var errUnknownCallback = errors.New("unknown callback")

const (
	CallbackTaskStart   = "playbook_on_task_start"
	CallbackOK          = "runner_on_ok"
	CallbackFailed      = "runner_on_failed"
	CallbackSkipped     = "runner_on_skipped"
	CallbackUnreachable = "runner_on_unreachable"
	CallbackFacts       = "facts_observed"
	CallbackStats       = "playbook_on_stats"
)

// Callbacks emitted by the automation engine that carry nothing for the receipts.
var ignoredCallbacks = map[string]struct{}{
	"on_any":                          {},
	"runner_on_no_hosts":              {},
	"runner_on_async_poll":            {},
	"runner_on_async_ok":              {},
	"runner_on_async_failed":          {},
	"playbook_on_start":               {},
	"playbook_on_notify":              {},
	"playbook_on_no_hosts_matched":    {},
	"playbook_on_no_hosts_remaining":  {},
	"playbook_on_vars_prompt":         {},
	"playbook_on_setup":               {},
	"playbook_on_import_for_host":     {},
	"playbook_on_not_import_for_host": {},
	"playbook_on_play_start":          {},
}

// Notification is one callback invocation of the automation engine, as read by emit.
type Notification struct {
	Callback string                 `json:"callback"`
	Args     map[string]interface{} `json:"args"`
}

// Callbacks dispatches notifications to the producer of the current process.
type Callbacks struct {
	producer *producer.Producer

	logger *logr.Logger
}

func NewCallbacks(p *producer.Producer) Callbacks {
	return Callbacks{producer: p}
}

func (c Callbacks) WithLogger(logger logr.Logger) Callbacks {
	c.logger = &logger

	return c
}

func (c Callbacks) Process(ctx context.Context, n Notification) error {
	switch n.Callback {
	case CallbackTaskStart:
		return c.taskStart(n)
	case CallbackOK, CallbackFailed, CallbackUnreachable:
		return c.outcome(ctx, n)
	case CallbackSkipped:
		return c.skipped(ctx, n)
	case CallbackFacts:
		return c.facts(ctx, n)
	case CallbackStats:
		return c.wrapSendError(c.producer.Done(ctx), n)
	}

	_, ignored := ignoredCallbacks[n.Callback]
	if ignored {
		c.logInfo(3, "Ignoring callback", "callback", n.Callback)

		return nil
	}

	return common.NewErrProcessingError(errUnknownCallback, categoryErrUnknownCallback, nil, "callback %q", n.Callback)
}

func (c Callbacks) taskStart(n Notification) error {
	name, err := ExtractString(n.Args, "name")
	if err != nil {
		return common.NewErrProcessingError(err, categoryErrInvalidNotification, nil, "failed to extract task name")
	}

	c.producer.TaskStart(name)

	return nil
}

func (c Callbacks) outcome(ctx context.Context, n Notification) error {
	host, err := ExtractString(n.Args, "host")
	if err != nil {
		return common.NewErrProcessingError(err, categoryErrInvalidNotification, nil, "failed to extract host of %s", n.Callback)
	}

	res, err := ExtractMap(n.Args, "res")
	if err != nil {
		return common.NewErrProcessingError(err, categoryErrInvalidNotification, nil, "failed to extract res of %s", n.Callback)
	}

	if n.Callback == CallbackOK {
		return c.wrapSendError(c.producer.OK(ctx, host, res), n)
	}

	ignoreErrors, err := ExtractBool(n.Args, "ignore_errors")
	if err != nil {
		return common.NewErrProcessingError(err, categoryErrInvalidNotification, nil, "failed to extract ignore_errors")
	}

	if n.Callback == CallbackUnreachable {
		err = c.producer.Unreachable(ctx, host, res, ignoreErrors)
	} else {
		err = c.producer.Failed(ctx, host, res, ignoreErrors)
	}

	return c.wrapSendError(err, n)
}

func (c Callbacks) skipped(ctx context.Context, n Notification) error {
	host, err := ExtractString(n.Args, "host")
	if err != nil {
		return common.NewErrProcessingError(err, categoryErrInvalidNotification, nil, "failed to extract host of %s", n.Callback)
	}

	return c.wrapSendError(c.producer.Skipped(ctx, host, n.Args["item"]), n)
}

func (c Callbacks) facts(ctx context.Context, n Notification) error {
	host, err := ExtractString(n.Args, "host")
	if err != nil {
		return common.NewErrProcessingError(err, categoryErrInvalidNotification, nil, "failed to extract host of %s", n.Callback)
	}

	facts, err := ExtractMap(n.Args, "facts")
	if err != nil {
		return common.NewErrProcessingError(err, categoryErrInvalidNotification, nil, "failed to extract facts")
	}

	return c.wrapSendError(c.producer.FactsObserved(ctx, host, facts), n)
}

// wrapSendError keeps notification faults skippable. Any other failure left a gap in the stream
// of the producer and is fatal.
func (c Callbacks) wrapSendError(err error, n Notification) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, entity.ErrEmptyHost) || errors.Is(err, entity.ErrUnknownState) || errors.Is(err, producer.ErrDone) {
		return common.NewErrProcessingError(err, categoryErrInvalidNotification, nil, "rejected %s", n.Callback)
	}

	return pipeline.NewErrFatalError(fmt.Errorf("failed to handle %s: %w", n.Callback, err))
}

func (c Callbacks) logInfo(level int, msg string, keysAndValues ...any) {
	if c.logger == nil {
		return
	}

	c.logger.V(level).Info(msg, keysAndValues...)
}
