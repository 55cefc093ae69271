package pool

import (
	"fmt"
	"strings"
	"time"
)

// Stats is a point-in-time snapshot of the pool counters.
type Stats struct {
	Workers   int   `json:"workers"`
	Busy      int64 `json:"busy"`
	Queued    int   `json:"queued"`
	Submitted int64 `json:"submitted"`
	Rejected  int64 `json:"rejected"`
	Completed int64 `json:"completed"`
	Panicked  int64 `json:"panicked"`

	MeanDuration time.Duration `json:"mean_duration"`
	P99Duration  time.Duration `json:"p99_duration"`
}

// Stats returns a snapshot of the pool counters.
// The values are read one after another and may be slightly inconsistent
// with each other while jobs are running.
func (p *WorkerPool) Stats() Stats {
	timer := p.duration.Snapshot()

	return Stats{
		Workers:      p.size,
		Busy:         p.busy.Count(),
		Queued:       p.queue.len(),
		Submitted:    p.submitted.Count(),
		Rejected:     p.rejected.Count(),
		Completed:    p.completed.Count(),
		Panicked:     p.panicked.Count(),
		MeanDuration: time.Duration(timer.Mean()),
		P99Duration:  time.Duration(timer.Percentile(0.99)),
	}
}

// String returns a single line representation used for periodic log output
func (s Stats) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("workers=%d busy=%d queued=%d", s.Workers, s.Busy, s.Queued))
	sb.WriteString(fmt.Sprintf(" submitted=%d completed=%d panicked=%d rejected=%d", s.Submitted, s.Completed, s.Panicked, s.Rejected))
	sb.WriteString(fmt.Sprintf(" mean=%s p99=%s", s.MeanDuration, s.P99Duration))
	return sb.String()
}

// ReportStats logs a stats snapshot every interval until stop is closed.
// It blocks, run it in its own goroutine.
func (p *WorkerPool) ReportStats(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			Logger.Infof("pool stats: %s", p.Stats())
		case <-stop:
			return
		}
	}
}
