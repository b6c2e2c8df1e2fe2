package entity

// Stats holds one counter per task state. changed overlays ok and is not exclusive.
type Stats map[TaskState]int

func NewStats() Stats {
	ret := make(Stats, len(TaskStates))

	for _, state := range TaskStates {
		ret[state] = 0
	}

	return ret
}

// Tasks returns the number of task entries the counters account for.
func (s Stats) Tasks() int {
	return s[TaskStateOK] + s[TaskStateFailed] + s[TaskStateUnreachable] + s[TaskStateSkipped]
}

type TaskEntry struct {
	Name   string    `json:"name"`
	State  TaskState `json:"state"`
	Result Payload   `json:"res"`
}

type Receipt struct {
	Facts map[string]interface{} `json:"facts"`
	Tasks []TaskEntry            `json:"tasks"`
	Stats Stats                  `json:"stats"`
}

func NewReceipt() *Receipt {
	return &Receipt{
		Facts: make(map[string]interface{}),
		Tasks: make([]TaskEntry, 0),
		Stats: NewStats(),
	}
}

// Aggregate maps a host to its receipt. It is the only artifact of a run.
type Aggregate map[string]*Receipt

// Hosts returns the number of hosts observed during the run.
func (a Aggregate) Hosts() int {
	return len(a)
}
