// Package gil models a process-wide execution lock of the kind interpreted
// runtimes hold while evaluating bytecode. Code that runs under the lock is
// serialized across goroutines no matter how many OS threads are available.
//
// The lock is released every Interval steps so that other holders get a
// turn, the same way an interpreter drops its lock on a switch interval.
package gil

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// DefaultInterval is the number of steps executed per lock acquisition.
const DefaultInterval = 1024

// Lock is a switch-interval execution lock. The zero value is not usable;
// create one with New.
type Lock struct {
	mu       sync.Mutex
	interval int

	acquisitions atomic.Int64
	holders      atomic.Int32
	maxHolders   atomic.Int32
}

// Stats is a snapshot of lock activity.
type Stats struct {
	Acquisitions int64
	MaxHolders   int32
}

// New creates a lock that releases after interval steps.
// A non-positive interval falls back to DefaultInterval.
func New(interval int) *Lock {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Lock{interval: interval}
}

// Interval returns the number of steps run per acquisition.
func (l *Lock) Interval() int {
	return l.interval
}

// Run calls step for every i in [lo, hi) in ascending order while holding
// the lock, yielding it after each interval.
func (l *Lock) Run(lo, hi int, step func(i int)) {
	for start := lo; start < hi; start += l.interval {
		end := min(start+l.interval, hi)

		l.acquire()
		for i := start; i < end; i++ {
			step(i)
		}
		l.release()

		runtime.Gosched()
	}
}

// Stats returns the current counters.
func (l *Lock) Stats() Stats {
	return Stats{
		Acquisitions: l.acquisitions.Load(),
		MaxHolders:   l.maxHolders.Load(),
	}
}

func (l *Lock) acquire() {
	l.mu.Lock()
	l.acquisitions.Add(1)

	n := l.holders.Add(1)
	for {
		cur := l.maxHolders.Load()
		if n <= cur || l.maxHolders.CompareAndSwap(cur, n) {
			break
		}
	}
}

func (l *Lock) release() {
	l.holders.Add(-1)
	l.mu.Unlock()
}
