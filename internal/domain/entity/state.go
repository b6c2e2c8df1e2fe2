package entity

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownState = errors.New("unknown task state")
	ErrDerivedState = errors.New("derived task state")
)

type TaskState string

const (
	TaskStateOK          TaskState = "ok"
	TaskStateFailed      TaskState = "failed"
	TaskStateUnreachable TaskState = "unreachable"
	TaskStateChanged     TaskState = "changed"
	TaskStateSkipped     TaskState = "skipped"
)

// TaskStates lists every counter of a receipt, in serialization order.
var TaskStates = []TaskState{
	TaskStateOK,
	TaskStateFailed,
	TaskStateUnreachable,
	TaskStateChanged,
	TaskStateSkipped,
}

func ParseTaskState(value string) (TaskState, error) {
	state := TaskState(value)

	err := state.Validate()
	if err != nil {
		return "", err
	}

	return state, nil
}

func (s TaskState) Validate() error {
	for _, known := range TaskStates {
		if s == known {
			return nil
		}
	}

	return fmt.Errorf("%w: %q", ErrUnknownState, string(s))
}

// IsPrimary reports whether the state can be the outcome of a task.
// changed is only ever an overlay on top of ok.
func (s TaskState) IsPrimary() bool {
	return s.Validate() == nil && s != TaskStateChanged
}

func (s TaskState) String() string {
	return string(s)
}

func (s *TaskState) UnmarshalText(text []byte) error {
	state, err := ParseTaskState(string(text))
	if err != nil {
		return err
	}

	*s = state

	return nil
}
