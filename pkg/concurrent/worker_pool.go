package concurrent

import (
	"sync"
)

// WorkerPool fans independent jobs out over numWorkers goroutines. Usage:
// AddJob all items, Close, Start with the job function, Wait, then drain
// CollectResults.
type WorkerPool[T JobI, G any] struct {
	numWorkers int
	jobs       chan T
	results    chan G
	wg         sync.WaitGroup
}

// NewWorkerPool creates a pool. capacity must cover the number of jobs added
// before Start so AddJob never blocks.
func NewWorkerPool[T JobI, G any](numWorkers, capacity int) *WorkerPool[T, G] {
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobs:       make(chan T, capacity),
		results:    make(chan G, capacity),
	}
}

func (wp *WorkerPool[T, G]) AddJob(job T) {
	wp.jobs <- job
}

// Close marks the job stream complete. Must be called before Wait.
func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobs)
}

func (wp *WorkerPool[T, G]) Start(fn JobFunc[T, G]) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go func() {
			defer wp.wg.Done()
			for job := range wp.jobs {
				wp.results <- fn(job)
			}
		}()
	}
}

func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) CollectResults() <-chan G {
	return wp.results
}
