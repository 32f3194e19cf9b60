package events

import "time"

// Type identifies the kind of a published event.
type Type string

const (
	// TypeLocation announces the path of the file being observed.
	TypeLocation Type = "log-location"
	// TypeUpdate carries the full file content after a change.
	TypeUpdate Type = "log-update"
	// TypeError carries a human-readable failure description.
	TypeError Type = "log-error"
)

// Event is one emission from the watch engine. Sequence numbers are assigned
// by the hub in publish order and never reused within a daemon run.
type Event struct {
	Sequence  uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`
	Type      Type      `json:"type"`
	Payload   string    `json:"payload"`
}

// Sink receives watch emissions. Implementations must not block; the watch
// loop calls these inline and relies on them returning promptly. Calls for a
// single producer arrive in emission order.
type Sink interface {
	NotifyLocation(path string)
	NotifyContent(content string)
	NotifyError(message string)
}

type fanout struct {
	sinks []Sink
}

// Fanout combines several sinks into one. Each emission is forwarded to
// every sink in the order given; nil sinks are skipped.
func Fanout(sinks ...Sink) Sink {
	kept := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}
	return fanout{sinks: kept}
}

func (f fanout) NotifyLocation(path string) {
	for _, sink := range f.sinks {
		sink.NotifyLocation(path)
	}
}

func (f fanout) NotifyContent(content string) {
	for _, sink := range f.sinks {
		sink.NotifyContent(content)
	}
}

func (f fanout) NotifyError(message string) {
	for _, sink := range f.sinks {
		sink.NotifyError(message)
	}
}
