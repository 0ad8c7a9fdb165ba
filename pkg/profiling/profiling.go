package profiling

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"
)

// StartCPUProfile starts a CPU profile written to filename and returns the function stopping it.
func StartCPUProfile(filename string) (func(), error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrap(err, "could not create CPU profile")
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "could not start CPU profile")
	}

	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}

// CaptureMemoryProfile writes the current heap profile to filename.
func CaptureMemoryProfile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "could not create memory profile")
	}
	defer f.Close()

	runtime.GC() // up-to-date statistics

	return errors.Wrap(pprof.WriteHeapProfile(f), "could not write memory profile")
}
