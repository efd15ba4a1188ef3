package procpool

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSpawn is returned when a worker process cannot be started.
	ErrSpawn = errors.New("worker process could not be spawned")

	// ErrCrash is returned when a worker process exits abnormally or
	// does not deliver a valid reply.
	ErrCrash = errors.New("worker process crashed")
)

// WorkerError describes the failure of a single worker process.
type WorkerError struct {
	Index  int    // sub-range index the worker was processing
	Phase  string // "spawn", "send", "wait" or "reply"
	Kind   error  // ErrSpawn or ErrCrash
	Stderr string // captured stderr of the worker, trimmed
	Err    error
}

func (e *WorkerError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "worker %d: %s: %v", e.Index, e.Phase, e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, " (stderr: %s)", e.Stderr)
	}
	return b.String()
}

func (e *WorkerError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
