package bench

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
)

// SetupProfiling wraps a benchmark run in pprof profiling. CPU sampling
// starts immediately when cpuProfile is set; the heap snapshot for
// memProfile is taken by the returned stop func, after the strategies
// have run. Progress notes go to w.
func SetupProfiling(w io.Writer, cpuProfile, memProfile string) (stop func(), err error) {
	var stopCPU func()
	if cpuProfile != "" {
		if stopCPU, err = startCPUProfile(cpuProfile); err != nil {
			return nil, err
		}
		fmt.Fprintf(w, "CPU profile: %s\n", cpuProfile)
	}

	return func() {
		if stopCPU != nil {
			stopCPU()
		}
		if memProfile == "" {
			return
		}
		if err := writeHeapProfile(memProfile); err != nil {
			colorFprintf(w, Red, "Heap profile: %v\n", err)
			return
		}
		fmt.Fprintf(w, "Heap profile: %s\n", memProfile)
	}, nil
}

func startCPUProfile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("start CPU profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	// up-to-date allocation statistics
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write: %w", err)
	}
	return f.Close()
}
