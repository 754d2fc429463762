package worker

import (
	"context"
	"sync"
)

// Pool evaluates file jobs with bounded parallelism. The caller's context
// bounds every evaluation: once it ends, workers stop picking up queued jobs
// and in-flight evaluations observe the cancellation.
type Pool struct {
	workers int
	jobs    chan fileJob
	results chan *FileResult
	wg      sync.WaitGroup
}

// NewPool creates a pool with the given number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers: workers,
		jobs:    make(chan fileJob, workers*2), // Buffered to prevent blocking
		results: make(chan *FileResult, workers*2),
	}
}

// Start launches the workers under the given context
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			result := job.Execute(ctx)
			select {
			case p.results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Submit queues one job. Jobs submitted after the context ended are dropped;
// their files simply carry no result.
func (p *Pool) Submit(ctx context.Context, job fileJob) {
	select {
	case <-ctx.Done():
	case p.jobs <- job:
	}
}

// Wait closes the queue and collects every completed result
func (p *Pool) Wait() []*FileResult {
	close(p.jobs)

	go func() {
		p.wg.Wait()
		close(p.results)
	}()

	var results []*FileResult
	for result := range p.results {
		results = append(results, result)
	}

	return results
}
