package pool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// queueNode is a single element of the job list
type queueNode struct {
	job  Job
	next atomic.Pointer[queueNode]
}

// jobQueue is an unbounded multi-producer queue for jobs.
// Producers append to a lock-free linked list, a single forwarding goroutine
// moves the jobs into a channel from which any number of workers receive.
// Jobs enter the channel in the order their push completed.
type jobQueue struct {
	head      atomic.Pointer[queueNode]
	tail      atomic.Pointer[queueNode]
	out       chan Job
	forwarder sync.WaitGroup

	// closeMu makes push and close mutually exclusive, so a job is either
	// rejected or guaranteed to be forwarded before out is closed
	closeMu sync.RWMutex
	closed  atomic.Bool

	// pending counts jobs that were pushed but not yet received from out
	pending atomic.Int64

	// mu and cond park the forwarder while the list is empty
	mu   sync.Mutex
	cond *sync.Cond
}

// newJobQueue creates a queue and starts its forwarding goroutine
func newJobQueue() *jobQueue {
	// sentinel node, head always points to the last consumed node
	sentinel := &queueNode{}

	q := &jobQueue{
		out: make(chan Job),
	}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	q.forwarder.Add(1)
	go q.forward()

	return q
}

// push appends a job. Returns false if the queue is closed.
// Never blocks on consumers.
func (q *jobQueue) push(job Job) bool {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()

	if q.closed.Load() {
		return false
	}

	q.pending.Add(1)

	newNode := &queueNode{job: job}
	var backoff uint8 = 0

	for {
		tailNode := q.tail.Load()
		next := tailNode.next.Load()

		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// may fail if another producer already moved the tail forward
				q.tail.CompareAndSwap(tailNode, newNode)
				q.wake()
				return true
			}
		} else {
			// another producer appended but did not move the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		// exponential backoff under contention
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// wake signals the forwarder while holding mu, so the signal can not slip in
// between its emptiness check and cond.Wait
func (q *jobQueue) wake() {
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

// forward moves jobs from the list into out until the queue is closed and drained
func (q *jobQueue) forward() {
	defer q.forwarder.Done()
	defer close(q.out)

	for {
		hasItems := false

		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}
			hasItems = true

			job := next.job
			q.head.Store(next)

			q.out <- job
			q.pending.Add(-1)

			// release the closure for the gc
			next.job = nil
		}

		if !hasItems && q.closed.Load() {
			return
		}

		if !hasItems {
			q.mu.Lock()
			if q.head.Load().next.Load() == nil && !q.closed.Load() {
				q.cond.Wait()
			}
			q.mu.Unlock()
		}
	}
}

// recv returns the channel workers receive jobs from.
// It is closed once the queue is closed and every pushed job was received.
func (q *jobQueue) recv() <-chan Job {
	return q.out
}

// close rejects further pushes. Jobs already in the queue are still delivered.
func (q *jobQueue) close() {
	q.closeMu.Lock()
	q.closed.Store(true)
	q.closeMu.Unlock()
	q.wake()
}

// isClosed returns true if the queue is closed
func (q *jobQueue) isClosed() bool {
	return q.closed.Load()
}

// len returns the number of jobs that were pushed but not yet received by a worker
func (q *jobQueue) len() int {
	return int(q.pending.Load())
}
