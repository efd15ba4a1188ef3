package procpool

import (
	"io"
	"os"
)

// EnvWorker is set to "1" in the environment of every worker process.
const EnvWorker = "QUADPOOL_WORKER"

// Handler computes the partial value of one job inside a worker process.
type Handler func(job Job) (float64, error)

// IsWorker reports whether the current process was started as a worker.
func IsWorker() bool {
	return os.Getenv(EnvWorker) == "1"
}

// Serve reads a single job from r, runs h on it and writes the reply to w.
// Handler failures are reported to the parent inside the reply; only
// transport failures are returned.
func Serve(r io.Reader, w io.Writer, h Handler) error {
	job, err := readJob(r)
	if err != nil {
		return err
	}

	value, err := h(job)
	reply := NewReply(job.Index, value)
	if err != nil {
		reply = Reply{Index: job.Index, Error: err.Error()}
	}

	return writeReply(w, reply)
}
