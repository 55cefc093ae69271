package pool

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/rcrowley/go-metrics"
)

var Logger = logger.GetLogger("pool")

// Job is a unit of work. It is run at most once by one worker, its result is
// only observable through its side effects.
type Job func()

var (
	// ErrPoolClosed is returned by Execute after Close was called
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrNilJob is returned by Execute for a nil job
	ErrNilJob = errors.New("job must not be nil")
)

// WorkerPool runs submitted jobs on a fixed number of long-lived worker goroutines.
type WorkerPool struct {
	size      int
	queue     *jobQueue
	workers   sync.WaitGroup
	closeOnce sync.Once

	// statistics (see stats.go)
	registry  metrics.Registry
	submitted metrics.Counter
	rejected  metrics.Counter
	completed metrics.Counter
	panicked  metrics.Counter
	busy      metrics.Counter
	duration  metrics.Timer
}

// NewWorkerPool creates a pool and starts exactly size workers.
//
// Usage:
//
//	p, err := pool.NewWorkerPool(12)
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	_ = p.Execute(func() { handle(conn) })
func NewWorkerPool(size int) (*WorkerPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}

	registry := metrics.NewRegistry()

	p := &WorkerPool{
		size:      size,
		queue:     newJobQueue(),
		registry:  registry,
		submitted: metrics.NewRegisteredCounter("jobs.submitted", registry),
		rejected:  metrics.NewRegisteredCounter("jobs.rejected", registry),
		completed: metrics.NewRegisteredCounter("jobs.completed", registry),
		panicked:  metrics.NewRegisteredCounter("jobs.panicked", registry),
		busy:      metrics.NewRegisteredCounter("workers.busy", registry),
		duration:  metrics.NewRegisteredTimer("jobs.duration", registry),
	}

	p.workers.Add(size)
	for i := 0; i < size; i++ {
		go p.worker(i)
	}

	Logger.Infof("started worker pool with %d workers", size)
	return p, nil
}

// Size returns the number of workers
func (p *WorkerPool) Size() int {
	return p.size
}

// Execute enqueues a job for asynchronous execution and returns immediately.
// There is no ordering guarantee between the completion of different jobs.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (p *WorkerPool) Execute(job Job) error {
	if job == nil {
		return ErrNilJob
	}
	if !p.queue.push(job) {
		p.rejected.Inc(1)
		return ErrPoolClosed
	}
	p.submitted.Inc(1)
	return nil
}

// Close stops accepting jobs and blocks until every queued and running job
// has finished and all workers have exited. Running jobs are not interrupted.
// Calling Close more than once is safe.
func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() {
		Logger.Infof("closing worker pool, %d jobs queued", p.queue.len())
		p.queue.close()
	})
	p.workers.Wait()
}

// IsClosed returns true once Close was called
func (p *WorkerPool) IsClosed() bool {
	return p.queue.isClosed()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// worker receives jobs until the queue is closed and drained
func (p *WorkerPool) worker(id int) {
	defer p.workers.Done()

	for job := range p.queue.recv() {
		p.run(id, job)
	}

	Logger.Debugf("worker %d stopped", id)
}

// run executes one job. A panic is recovered so the worker keeps serving.
func (p *WorkerPool) run(id int, job Job) {
	p.busy.Inc(1)
	start := time.Now()

	defer func() {
		p.busy.Dec(1)
		p.duration.UpdateSince(start)

		if r := recover(); r != nil {
			p.panicked.Inc(1)
			Logger.Errorf("worker %d recovered from panic: %v\n%s", id, r, debug.Stack())
			return
		}
		p.completed.Inc(1)
	}()

	job()
}
