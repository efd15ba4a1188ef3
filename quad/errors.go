package quad

import (
	"errors"

	"github.com/utkarsh5026/quadpool/internal/procpool"
)

var (
	// ErrInvalidRange reports a bad interval, sample count or worker
	// count. It is returned before any work is dispatched.
	ErrInvalidRange = errors.New("invalid integration range")

	// ErrUnknownIntegrand is returned when an integrand name is not
	// registered, or when an anonymous integrand is passed to the
	// multiprocess strategy.
	ErrUnknownIntegrand = errors.New("unknown integrand")

	// ErrIncompleteResult means the aggregator was handed a result set
	// that does not hold exactly one partial per sub-range. It signals a
	// logic fault, not a recoverable condition.
	ErrIncompleteResult = errors.New("incomplete partial results")

	// ErrWorkerSpawn is returned when a worker process cannot be started.
	ErrWorkerSpawn = procpool.ErrSpawn

	// ErrWorkerCrash is returned when a worker process dies or fails to
	// deliver its partial result.
	ErrWorkerCrash = procpool.ErrCrash
)

// WorkerError carries the details of a failed worker process. Match it
// with errors.As; match its kind with errors.Is against ErrWorkerSpawn or
// ErrWorkerCrash.
type WorkerError = procpool.WorkerError
