package pipeline

import (
	"context"
	"sync"
)

// Job is a unit of work a WorkerPool can run to produce a result of type R.
type Job[R any] interface {
	Process(ctx context.Context) (R, error)
}

// poolLogger is the minimal logging surface a WorkerPool needs; satisfied
// directly by *log.Logger.
type poolLogger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
}

// WorkerPool is a fixed-size dynamic worker pool: jobs are loaded up front
// into a buffered channel and `workers` goroutines drain it concurrently.
// Used for Stage-1, where the full task list is known before the pool
// starts. Stage-2 cannot use this shape because it must stream off a
// channel whose capacity IS the backpressure budget, not a preloaded queue.
type WorkerPool[J Job[R], R any] struct {
	workers int
	logger  poolLogger
}

// NewWorkerPool creates a pool of the given size.
func NewWorkerPool[J Job[R], R any](workers int, logger poolLogger) *WorkerPool[J, R] {
	return &WorkerPool[J, R]{workers: workers, logger: logger}
}

// ProcessResult pairs a job with its outcome.
type ProcessResult[J Job[R], R any] struct {
	Job    J
	Result R
	Error  error
}

// Process runs every job across the pool's workers and returns a channel
// that closes once all jobs have been processed. results is sized to the
// worker count, not the job count, so a worker blocks on its own send once
// that many results are unread by the consumer.
func (wp *WorkerPool[J, R]) Process(ctx context.Context, jobs []J) <-chan ProcessResult[J, R] {
	jobQueue := make(chan J, len(jobs))
	results := make(chan ProcessResult[J, R], wp.workers)

	for _, job := range jobs {
		jobQueue <- job
	}
	close(jobQueue)

	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go wp.worker(ctx, i, jobQueue, results, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func (wp *WorkerPool[J, R]) worker(ctx context.Context, id int, jobs <-chan J, results chan<- ProcessResult[J, R], wg *sync.WaitGroup) {
	defer wg.Done()

	processed := 0
	for job := range jobs {
		result, err := job.Process(ctx)
		if err != nil {
			wp.logger.Debugf("stage1 worker %d: job failed: %v", id, err)
		} else {
			processed++
		}

		select {
		case results <- ProcessResult[J, R]{Job: job, Result: result, Error: err}:
		case <-ctx.Done():
			wp.logger.Infof("stage1 worker %d: stopped after %d jobs", id, processed)
			return
		}
	}
	wp.logger.Infof("stage1 worker %d: completed %d jobs", id, processed)
}
