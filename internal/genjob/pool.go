package genjob

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrQueueFull reports that the in-process dispatch queue is saturated.
var ErrQueueFull = errors.New("dispatch queue full")

// Pool is the in-process Dispatcher: a fixed set of goroutines draining a
// buffered channel of job ids. Dispatch never blocks on job execution.
type Pool struct {
	runner *Runner
	jobs   chan string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
}

func NewPool(runner *Runner, concurrency, queueDepth int) *Pool {
	if concurrency <= 0 {
		concurrency = 2
	}
	if queueDepth <= 0 {
		queueDepth = concurrency * 16
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		runner: runner,
		jobs:   make(chan string, queueDepth),
		ctx:    ctx,
		cancel: cancel,
	}

	p.wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer p.wg.Done()
			for jobID := range p.jobs {
				if err := p.runner.Run(p.ctx, jobID); err != nil {
					slog.Error("job run failed", "worker", workerID, "job_id", jobID, "error", err)
				}
			}
		}(i)
	}
	return p
}

// Dispatch enqueues the job and returns immediately. The request context is
// deliberately not propagated to execution: the job outlives the request.
func (p *Pool) Dispatch(_ context.Context, jobID string) error {
	select {
	case p.jobs <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting work and waits for in-flight jobs to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
		p.wg.Wait()
		p.cancel()
	})
}
