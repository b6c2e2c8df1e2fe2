package processingerror

import "time"

// DeadLetter is the document stored for a notification line that could not be turned into events.
type DeadLetter struct {
	Time     time.Time `json:"time"`
	Host     string    `json:"host"`
	RunID    string    `json:"run_id"`
	Revision string    `json:"revision,omitempty"`
	Version  string    `json:"version,omitempty"`

	Source Source     `json:"source"`
	Inputs []KeyValue `json:"inputs,omitempty"`

	Category string `json:"category"`
	Error    string `json:"error"`
}

// Source is the raw line as read, kept as text since notifications are line-delimited JSON.
type Source struct {
	Name    string `json:"name"`
	Payload string `json:"payload"`
}

type KeyValue struct {
	Source string `json:"source"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}
