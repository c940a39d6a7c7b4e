package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus accumulates solver counters and solve durations in its own registry.
type Prometheus struct {
	Registry *prometheus.Registry

	counters *prometheus.CounterVec
	duration *prometheus.HistogramVec
	solves   *prometheus.CounterVec
}

// NewPrometheus creates the metrics in a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Prometheus{
		Registry: reg,
		counters: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mapf_solver_counter_total",
			Help: "Solver counters summed over solves",
		}, []string{"solver", "counter"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mapf_solve_duration_seconds",
			Help:    "Wall-clock time per solve",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60, 300},
		}, []string{"solver", "status"}),
		solves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mapf_solves_total",
			Help: "Solves by outcome",
		}, []string{"solver", "status"}),
	}
}

// Sink returns a Sink that adds counters under the given solver label.
// Negative values are dropped.
func (p *Prometheus) Sink(solver string) Sink {
	return promSink{p: p, solver: solver}
}

// ObserveSolve records one finished solve.
func (p *Prometheus) ObserveSolve(solver, status string, d time.Duration) {
	p.duration.WithLabelValues(solver, status).Observe(d.Seconds())
	p.solves.WithLabelValues(solver, status).Inc()
}

// WriteTextfile dumps the registry in the text exposition format.
func (p *Prometheus) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.Registry)
}

type promSink struct {
	p      *Prometheus
	solver string
}

func (s promSink) Counter(name string, value int64) {
	if value < 0 {
		return
	}
	s.p.counters.WithLabelValues(s.solver, name).Add(float64(value))
}
