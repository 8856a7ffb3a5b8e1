/*package thread contains functions useful for multi-threading. hexatic only
needs two things from it: a process-wide worker count and a way to split an
index range between workers.*/
package thread

import (
	"fmt"
	"runtime"
	"sync"
)

var workers = runtime.NumCPU()

// Set sets the number of workers used by hexatic and GOMAXPROCS. n <= 0
// means "use every core." Asking for more workers than there are cores is an
// error.
func Set(n int) error {
	if n <= 0 { n = runtime.NumCPU() }
	if n > runtime.NumCPU() {
		return fmt.Errorf("%d threads requested, but your system only has "+
			"%d cores. If you want hexatic to use the maximum number of "+
			"threads, set Threads = -1.", n, runtime.NumCPU())
	}

	workers = n
	runtime.GOMAXPROCS(n)
	return nil
}

// Workers returns the current number of workers.
func Workers() int { return workers }

// SplitArray splits the range [0, n) into contiguous blocks, one per worker,
// and calls f on each block from its own goroutine. f is given the worker
// index w and should loop over i := start; i < end; i += step. SplitArray
// returns after every call to f has returned. If workers <= 0, Workers() is
// used.
func SplitArray(n, workers int, f func(w, start, end, step int)) {
	if workers <= 0 { workers = Workers() }
	if workers > n { workers = n }
	if workers <= 1 {
		if n > 0 { f(0, 0, n, 1) }
		return
	}

	wg := &sync.WaitGroup{ }
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start, end := w*n/workers, (w + 1)*n/workers
		go func(w, start, end int) {
			defer wg.Done()
			f(w, start, end, 1)
		}(w, start, end)
	}
	wg.Wait()
}
