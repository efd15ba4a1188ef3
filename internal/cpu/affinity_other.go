//go:build !linux

package cpu

import "runtime"

// Pin locks the calling goroutine to its OS thread. Per-core pinning is
// only implemented on Linux; elsewhere the thread lock is all we get.
func Pin(slot int) (release func(), err error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, nil
}

// Allowed reports how many CPUs the calling thread may run on.
func Allowed() int {
	return Count()
}
