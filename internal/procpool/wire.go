package procpool

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// Job is the unit of work sent to one worker process. Everything the
// worker needs travels by value; the integrand is referenced by the name
// it is registered under in the worker's own address space.
type Job struct {
	Index     int     `json:"index"`
	Integrand string  `json:"integrand"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Samples   int     `json:"samples"`
	Offset    int     `json:"offset"`

	GridLower   float64 `json:"grid_lower"`
	GridUpper   float64 `json:"grid_upper"`
	GridSamples int     `json:"grid_samples"`
}

// Reply is what a worker process writes back on stdout. The value is
// carried as its IEEE-754 bit pattern so that NaN and ±Inf partial sums
// survive the trip and the parent sees exactly the bits the worker computed.
type Reply struct {
	Index int    `json:"index"`
	Bits  uint64 `json:"bits"`
	Error string `json:"error,omitempty"`
}

// NewReply builds the reply for a computed partial value.
func NewReply(index int, value float64) Reply {
	return Reply{Index: index, Bits: math.Float64bits(value)}
}

// Value returns the partial value carried by the reply.
func (r Reply) Value() float64 {
	return math.Float64frombits(r.Bits)
}

func writeJob(w io.Writer, job Job) error {
	if err := json.NewEncoder(w).Encode(job); err != nil {
		return fmt.Errorf("encode job %d: %w", job.Index, err)
	}
	return nil
}

func readJob(r io.Reader) (Job, error) {
	var job Job
	if err := json.NewDecoder(r).Decode(&job); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}

func writeReply(w io.Writer, reply Reply) error {
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		return fmt.Errorf("encode reply %d: %w", reply.Index, err)
	}
	return nil
}

func readReply(data []byte) (Reply, error) {
	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		return Reply{}, fmt.Errorf("decode reply: %w", err)
	}
	return reply, nil
}
