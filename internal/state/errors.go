package state

import (
	"errors"
	"fmt"
	"log"
)

var (
	// ErrNotFound is returned when an intent names an identifier the store
	// does not hold.
	ErrNotFound = errors.New("task not found")
	// ErrEmptyText is returned when task text is empty after trimming.
	ErrEmptyText = errors.New("task text is empty")
	// ErrPending is returned for edits to a task whose creation has not been
	// confirmed yet; its placeholder identifier means nothing to the service.
	ErrPending = errors.New("task is awaiting confirmation")
	// ErrPastDeadline is returned by ValidateDeadline for dates before today.
	ErrPastDeadline = errors.New("deadline is in the past")
)

// OpKind names the remote operation behind a failure.
type OpKind string

const (
	OpLoad   OpKind = "load"
	OpAdd    OpKind = "add"
	OpEdit   OpKind = "edit"
	OpDelete OpKind = "delete"
	OpToggle OpKind = "toggle"
	OpClear  OpKind = "clear-completed"
)

// RemoteError is the single failure kind surfaced by the store: a remote
// call that failed and was compensated locally.
type RemoteError struct {
	Op  OpKind
	ID  string
	Err error
}

func (e *RemoteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.ID, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Reporter receives every remote failure after the store has rolled back.
type Reporter interface {
	Report(err *RemoteError)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(err *RemoteError)

// Report calls f(err).
func (f ReporterFunc) Report(err *RemoteError) {
	f(err)
}

// LogReporter writes failures to a logger, or the standard logger when nil.
type LogReporter struct {
	Logger *log.Logger
}

// Report logs err.
func (r LogReporter) Report(err *RemoteError) {
	if r.Logger == nil {
		log.Printf("%v", err)
		return
	}
	r.Logger.Printf("%v", err)
}
