package team

import (
	"context"
	"sync"
)

// WorkerFunc processes one job. A non-nil error drops the job's result;
// the pool keeps going with the remaining jobs.
type WorkerFunc[T any, U any] func(T) (U, error)

// Team fans a job slice out over WorkerCount goroutines and gathers the
// successful results. Result order follows completion, not submission.
type Team[T any, U any] struct {
	WorkerCount int
	Worker      WorkerFunc[T, U]
}

// Run drains the job slice through the pool and returns the collected
// results. Once ctx is cancelled the workers stop picking up new jobs;
// jobs already handed to a worker still finish.
func (t *Team[T, U]) Run(ctx context.Context, jobs []T) []U {
	jobChan := make(chan T, len(jobs))
	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	resultChan := make(chan U, len(jobs))
	var wg sync.WaitGroup
	for i := 0; i < t.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				if ctx.Err() != nil {
					return
				}
				if res, err := t.Worker(job); err == nil {
					resultChan <- res
				}
			}
		}()
	}
	wg.Wait()
	close(resultChan)

	results := make([]U, 0, len(jobs))
	for res := range resultChan {
		results = append(results, res)
	}
	return results
}
