package core

import (
	"errors"
	"time"
)

// Cost sentinels reported instead of a solution cost.
const (
	NoSolutionCost = -1
	TimeoutCost    = -2
	MaxMemoryCost  = -3
)

// DefaultMaxTime is the default wall-clock budget in milliseconds.
const DefaultMaxTime int64 = 300000

// Runner supplies the wall clock for budget checks.
type Runner interface {
	ElapsedMilliseconds() int64
}

// Stopwatch is a Runner started at creation.
type Stopwatch struct {
	start time.Time
}

// NewRunner starts a stopwatch.
func NewRunner() *Stopwatch { return &Stopwatch{start: time.Now()} }

// ElapsedMilliseconds returns the time since the stopwatch started.
func (s *Stopwatch) ElapsedMilliseconds() int64 {
	return time.Since(s.start).Milliseconds()
}

// Status is the outcome of a solve attempt.
type Status int

const (
	Unsolved Status = iota // Solve not called or still running
	Solved
	NoSolution
	Timeout
	MemoryExhausted
	Interrupted // Stopped by a target cost or soft cap; may be resumed
)

func (s Status) String() string {
	return [...]string{"Unsolved", "Solved", "NoSolution", "Timeout", "MemoryExhausted", "Interrupted"}[s]
}

var (
	ErrNoSolution      = errors.New("no solution")
	ErrTimeout         = errors.New("time budget exceeded")
	ErrMemoryExhausted = errors.New("memory budget exceeded")
	ErrInterrupted     = errors.New("search interrupted")
)

// Err maps a failed status to its sentinel error. Solved and Unsolved map to nil.
func (s Status) Err() error {
	switch s {
	case NoSolution:
		return ErrNoSolution
	case Timeout:
		return ErrTimeout
	case MemoryExhausted:
		return ErrMemoryExhausted
	case Interrupted:
		return ErrInterrupted
	default:
		return nil
	}
}

// Cost returns the sentinel cost for a failed status.
func (s Status) Cost() int {
	switch s {
	case Timeout:
		return TimeoutCost
	case MemoryExhausted:
		return MaxMemoryCost
	default:
		return NoSolutionCost
	}
}
