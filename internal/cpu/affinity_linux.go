//go:build linux

package cpu

import (
	"errors"
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its OS thread and restricts that
// thread to a single CPU taken from the mask it inherited: slot selects
// the (slot mod n)-th allowed CPU, n being the size of that mask. The
// returned release func restores the inherited mask and unlocks the
// thread, so it must be called from the same goroutine.
//
// The goroutine stays locked even when setting the mask fails so callers
// get the same scheduling guarantees on every platform.
func Pin(slot int) (release func(), err error) {
	runtime.LockOSThread()

	var prev unix.CPUSet
	if err := unix.SchedGetaffinity(0, &prev); err != nil {
		return runtime.UnlockOSThread, err
	}

	id, ok := selectCPU(&prev, slot)
	if !ok {
		return runtime.UnlockOSThread, errors.New("cpu: inherited affinity mask is empty")
	}

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(id)

	// 0 = calling thread
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		return runtime.UnlockOSThread, err
	}

	return func() {
		_ = unix.SchedSetaffinity(0, &prev)
		runtime.UnlockOSThread()
	}, nil
}

// selectCPU returns the ID of the (slot mod n)-th CPU set in allowed,
// where n is allowed.Count(). IDs need not be contiguous.
func selectCPU(allowed *unix.CPUSet, slot int) (int, bool) {
	n := allowed.Count()
	if n == 0 {
		return 0, false
	}

	want := normalize(slot, n)
	for id, seen := 0, 0; seen < n; id++ {
		if !allowed.IsSet(id) {
			continue
		}
		if seen == want {
			return id, true
		}
		seen++
	}
	return 0, false
}

// Allowed reports how many CPUs the calling thread may run on.
func Allowed() int {
	var mask unix.CPUSet
	if err := unix.SchedGetaffinity(0, &mask); err != nil {
		return Count()
	}
	if n := mask.Count(); n > 0 {
		return n
	}
	return Count()
}
