package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
)

// startProfiling starts a CPU profile at cpuPath and arranges for a heap
// profile at memPath when the returned stop function runs. Empty paths disable
// either profile. stop is safe to call more than once.
func startProfiling(cpuPath, memPath string) (func() error, error) {
	var cpu *os.File
	if cpuPath != "" {
		f, err := os.Create(cpuPath)
		if err != nil {
			return nil, fmt.Errorf("creating CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("starting CPU profile: %w", err)
		}
		cpu = f
	}

	var (
		once    sync.Once
		stopErr error
	)
	stop := func() error {
		once.Do(func() {
			if cpu != nil {
				pprof.StopCPUProfile()
				_ = cpu.Close()
			}
			if memPath == "" {
				return
			}
			f, err := os.Create(memPath)
			if err != nil {
				stopErr = fmt.Errorf("creating heap profile: %w", err)
				return
			}
			defer f.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				stopErr = fmt.Errorf("writing heap profile: %w", err)
			}
		})
		return stopErr
	}
	return stop, nil
}
