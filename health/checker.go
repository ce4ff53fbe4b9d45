package health

import (
	"context"
	"time"
)

// Status represents the health status of a component.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the component is functioning but with issues.
	StatusDegraded
	// StatusUnhealthy indicates the component is not functioning properly.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a health check.
type Result struct {
	Status    Status
	Message   string
	Details   map[string]any
	Duration  time.Duration // Set by the Aggregator.
	Timestamp time.Time
	Error     error
}

func newResult(status Status, message string, err error) Result {
	return Result{Status: status, Message: message, Error: err, Timestamp: time.Now()}
}

// Healthy creates a healthy result.
func Healthy(message string) Result { return newResult(StatusHealthy, message, nil) }

// Degraded creates a degraded result.
func Degraded(message string) Result { return newResult(StatusDegraded, message, nil) }

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result { return newResult(StatusUnhealthy, message, err) }

// WithDetails adds details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithDuration sets the duration on a result.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// Checker is the interface for health checks.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Check should return promptly once ctx is done.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckerFunc is an adapter to allow ordinary functions to be used as Checkers.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string                    { return f.name }
func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }
