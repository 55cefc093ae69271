// Package pool provides a fixed-size worker pool for running jobs asynchronously.
//
// Features and Guarantees:
//
//   - Fixed Size: exactly n worker goroutines are started by NewWorkerPool and
//     live until Close. The pool never grows or shrinks.
//   - Non-Blocking Submit: Execute only appends to an unbounded lock-free queue
//     and never waits for a free worker or for job completion.
//   - At-Most-Once: every accepted job is received by exactly one worker and run
//     once. Jobs are handed out in queue order, completion order depends on job
//     duration.
//   - Panic Isolation: a panicking job is recovered and counted, the worker
//     survives and continues with the next job.
//   - Graceful Close: Close rejects new jobs with ErrPoolClosed, lets queued and
//     running jobs finish and waits for all workers to exit.
//
// Statistics:
//
//	Counters and a duration timer are kept in a go-metrics registry.
//	Stats returns a snapshot, ReportStats logs one periodically.
//
// Note that a job blocking forever occupies its worker forever. When all
// workers are blocked new jobs are queued without limit.
package pool
