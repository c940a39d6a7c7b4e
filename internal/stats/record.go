package stats

import (
	"time"

	"github.com/google/uuid"
)

// Record describes one solve attempt. It is a Sink, so a solver can report its
// counters straight into it.
type Record struct {
	RunID     uuid.UUID        `json:"run_id"`
	Time      time.Time        `json:"time"`
	Instance  string           `json:"instance"`
	Solver    string           `json:"solver"`
	Agents    int              `json:"agents"`
	Status    string           `json:"status"`
	Cost      int              `json:"cost"`
	Makespan  int              `json:"makespan"`
	ElapsedMS int64            `json:"elapsed_ms"`
	Counters  map[string]int64 `json:"counters"`
}

// NewRecord starts a record with a fresh run ID.
func NewRecord(instance, solver string) *Record {
	return &Record{
		RunID:    uuid.New(),
		Time:     time.Now().UTC(),
		Instance: instance,
		Solver:   solver,
		Counters: make(map[string]int64),
	}
}

func (r *Record) Counter(name string, value int64) { r.Counters[name] = value }
