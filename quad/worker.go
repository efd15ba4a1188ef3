package quad

import (
	"fmt"
	"os"

	"github.com/utkarsh5026/quadpool/internal/gil"
	"github.com/utkarsh5026/quadpool/internal/procpool"
)

// ServeWorkerProcess turns the current process into a Multiprocess worker
// when it was launched as one, and returns immediately otherwise. Call it
// first thing in main, and in TestMain of packages whose tests use
// Multiprocess:
//
//	func main() {
//	    quad.ServeWorkerProcess()
//	    ...
//	}
//
// In worker mode it reads one job from stdin, writes the reply to stdout
// and exits; it never returns.
func ServeWorkerProcess() {
	if !procpool.IsWorker() {
		return
	}

	if err := procpool.Serve(os.Stdin, os.Stdout, serveJob); err != nil {
		fmt.Fprintf(os.Stderr, "quadpool worker: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// serveJob evaluates one job the way a worker process does: with its own
// execution lock, which nobody else in the process contends for.
func serveJob(job procpool.Job) (float64, error) {
	f, err := Lookup(job.Integrand)
	if err != nil {
		return 0, err
	}

	r := fromJob(job)
	return LockedKernel(gil.New(gil.DefaultInterval), r, f).Value, nil
}

func toJob(integrand string, r SubRange) procpool.Job {
	return procpool.Job{
		Index:       r.Index,
		Integrand:   integrand,
		Lower:       r.Lower,
		Upper:       r.Upper,
		Samples:     r.Samples,
		Offset:      r.Offset,
		GridLower:   r.Grid.Lower,
		GridUpper:   r.Grid.Upper,
		GridSamples: r.Grid.Samples,
	}
}

func fromJob(job procpool.Job) SubRange {
	return SubRange{
		Index:   job.Index,
		Lower:   job.Lower,
		Upper:   job.Upper,
		Samples: job.Samples,
		Offset:  job.Offset,
		Grid:    newGrid(job.GridLower, job.GridUpper, job.GridSamples),
	}
}
