package server

import (
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/tKV/lib/pool"
	"github.com/ValentinKolb/tKV/lib/store"
	"github.com/ValentinKolb/tKV/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
)

const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "error"

	// commandInvalid labels requests that could not be parsed
	commandInvalid = "invalid"
)

type commandLabel struct {
	command string
	result  string
}

// serverMetrics holds the metrics exposed on the metrics endpoint
type serverMetrics struct {
	set      *metrics.Set
	commands map[commandLabel]*metrics.Counter
	duration *metrics.Histogram
	accepted *metrics.Counter
}

// newServerMetrics creates all metrics up front, gauges read their values on scrape
func newServerMetrics(st store.IStore, t transport.IRPCServerTransport, p *pool.WorkerPool) *serverMetrics {
	set := metrics.NewSet()

	m := &serverMetrics{
		set:      set,
		commands: make(map[commandLabel]*metrics.Counter),
		duration: set.GetOrCreateHistogram("tkv_command_duration_seconds"),
		accepted: set.NewCounter("tkv_connections_accepted_total"),
	}

	for _, cmd := range []string{"get", "set", "del", commandInvalid} {
		for _, result := range []string{resultOK, resultNotFound, resultError} {
			name := fmt.Sprintf(`tkv_commands_total{command=%q,result=%q}`, cmd, result)
			m.commands[commandLabel{cmd, result}] = set.GetOrCreateCounter(name)
		}
	}

	// store
	set.NewGauge("tkv_keys", func() float64 {
		return float64(st.Len())
	})

	// connections
	set.NewGauge("tkv_connections_active", func() float64 {
		return float64(t.ActiveConnections())
	})
	t.OnAccept(m.accepted.Inc)

	// worker pool
	set.NewGauge("tkv_pool_workers", func() float64 {
		return float64(p.Size())
	})
	set.NewGauge("tkv_pool_workers_busy", func() float64 {
		return float64(p.Stats().Busy)
	})
	set.NewGauge("tkv_pool_jobs_queued", func() float64 {
		return float64(p.Stats().Queued)
	})
	set.NewGauge("tkv_pool_jobs_completed", func() float64 {
		return float64(p.Stats().Completed)
	})
	set.NewGauge("tkv_pool_jobs_panicked", func() float64 {
		return float64(p.Stats().Panicked)
	})

	return m
}

// observe counts one processed command
func (m *serverMetrics) observe(command string, err error, start time.Time) {
	result := resultOK
	if err != nil {
		if store.IsNotFound(err) {
			result = resultNotFound
		} else {
			result = resultError
		}
	}

	if c, ok := m.commands[commandLabel{command, result}]; ok {
		c.Inc()
	}
	m.duration.Update(time.Since(start).Seconds())
}

// writePrometheus writes the server and process metrics in the Prometheus text format
func (m *serverMetrics) writePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}
