// Package health diagnoses whether nexconsole can run: its configuration
// parses, the credential store is usable and the users API answers.
//
//	manager := health.NewManager()
//	manager.AddChecker(health.NewConfigChecker(path))
//	manager.AddChecker(health.NewAPIChecker(client))
//
//	results := manager.Check(ctx)
//	status := manager.OverallStatus(results)
package health

import (
	"context"
	"time"
)

// Checker verifies one thing the console depends on.
type Checker interface {
	// Name is a short lowercase identifier such as "config" or "api".
	Name() string

	// Check must respect the context deadline.
	Check(ctx context.Context) *Result
}

// Status is the outcome of a check.
type Status string

const (
	// StatusHealthy means the dependency works.
	StatusHealthy Status = "healthy"

	// StatusDegraded means the console runs with reduced function,
	// for example while nobody is signed in.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means the console cannot work until this is fixed.
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) String() string {
	return string(s)
}

// Result is what a Checker reports.
type Result struct {
	Status  Status                 `json:"status" yaml:"status"`
	Message string                 `json:"message" yaml:"message"`
	Details map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration          `json:"latency" yaml:"latency"`
}

// NewResult creates a result with empty details.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WithDetail records key and returns r for chaining.
func (r *Result) WithDetail(key string, value interface{}) *Result {
	r.Details[key] = value
	return r
}

// WithLatency overrides the measured latency.
func (r *Result) WithLatency(latency time.Duration) *Result {
	r.Latency = latency
	return r
}

func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}
