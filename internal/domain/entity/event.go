package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	ResultKeyChanged = "changed"
	ResultKeyFacts   = "ansible_facts"
)

var ErrEmptyHost = errors.New("empty host")

// Payload is the opaque result of a task. Only the reserved keys are ever read.
type Payload map[string]interface{}

type EventKind string

const (
	EventKindTask     EventKind = "task"
	EventKindSentinel EventKind = "sentinel"
)

type SentinelKind string

const (
	// SentinelProducer closes the stream of one producer.
	SentinelProducer SentinelKind = "producer"
	// SentinelRun is sent once every producer of the run has finished.
	SentinelRun SentinelKind = "run"
	// SentinelRelay is sent by the collector once its buffer has been replayed.
	SentinelRelay SentinelKind = "relay"
)

// Event is one observation travelling through the channels.
// Values are built by the constructors below and must not be mutated afterwards.
type Event struct {
	Kind     EventKind    `json:"kind"`
	Host     string       `json:"host,omitempty"`
	TaskName *string      `json:"task_name,omitempty"`
	State    TaskState    `json:"state,omitempty"`
	Result   Payload      `json:"result,omitempty"`
	Sentinel SentinelKind `json:"sentinel,omitempty"`
	Producer string       `json:"producer,omitempty"`
	// Run scopes the event to one playbook run on a shared transport.
	Run string `json:"run,omitempty"`
}

func NewTaskEvent(host string, taskName *string, state TaskState, result Payload) (Event, error) {
	if host == "" {
		return Event{}, ErrEmptyHost
	}

	err := state.Validate()
	if err != nil {
		return Event{}, err
	}

	if !state.IsPrimary() {
		return Event{}, fmt.Errorf("%w: %s", ErrDerivedState, state)
	}

	var name *string
	if taskName != nil {
		n := *taskName
		name = &n
	}

	return Event{
		Kind:     EventKindTask,
		Host:     host,
		TaskName: name,
		State:    state,
		Result:   result.Copy(),
	}, nil
}

// NewFactsEvent builds a task-free record only carrying host facts.
func NewFactsEvent(host string, facts map[string]interface{}) (Event, error) {
	return NewTaskEvent(host, nil, TaskStateOK, Payload{ResultKeyFacts: facts})
}

func NewProducerSentinel(producer string) Event {
	return Event{Kind: EventKindSentinel, Sentinel: SentinelProducer, Producer: producer}
}

func NewRunSentinel() Event {
	return Event{Kind: EventKindSentinel, Sentinel: SentinelRun}
}

func NewRelaySentinel() Event {
	return Event{Kind: EventKindSentinel, Sentinel: SentinelRelay}
}

// InRun returns a copy of the event stamped with the run identifier.
func (e Event) InRun(runID string) Event {
	e.Run = runID

	return e
}

func (e Event) IsSentinel(kind SentinelKind) bool {
	return e.Kind == EventKindSentinel && e.Sentinel == kind
}

// Changed reports whether the result carries a truthy changed key.
func (e Event) Changed() bool {
	return truthy(e.Result[ResultKeyChanged])
}

// Facts returns the ansible_facts carried by the result, if any.
func (e Event) Facts() (map[string]interface{}, bool) {
	value, present := e.Result[ResultKeyFacts]
	if !present {
		return nil, false
	}

	switch facts := value.(type) {
	case map[string]interface{}:
		return facts, true
	case Payload:
		return facts, true
	default:
		return nil, false
	}
}

func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event

	decoded := plain{}

	err := json.Unmarshal(data, &decoded)
	if err != nil {
		return err
	}

	switch decoded.Kind {
	case EventKindTask:
		if decoded.Host == "" {
			return ErrEmptyHost
		}

		err = decoded.State.Validate()
		if err != nil {
			return err
		}

		if !decoded.State.IsPrimary() {
			return fmt.Errorf("%w: %s", ErrDerivedState, decoded.State)
		}

		if decoded.Result == nil {
			decoded.Result = Payload{}
		}
	case EventKindSentinel:
		switch decoded.Sentinel {
		case SentinelProducer, SentinelRun, SentinelRelay:
		default:
			return fmt.Errorf("unknown sentinel %q", decoded.Sentinel)
		}
	default:
		return fmt.Errorf("unknown event kind %q", decoded.Kind)
	}

	*e = Event(decoded)

	return nil
}

// Copy returns a shallow copy, never nil.
func (p Payload) Copy() Payload {
	ret := make(Payload, len(p))

	for k, v := range p {
		ret[k] = v
	}

	return ret
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return true
	}
}
