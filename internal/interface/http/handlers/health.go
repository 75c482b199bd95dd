// Package handlers contains HTTP handler interfaces and implementations.
package handlers

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH CHECKING
// ══════════════════════════════════════════════════════════════════════════════

// HealthStatus describes the health of the service and its backends.
type HealthStatus struct {
	Healthy    bool              `json:"healthy"`
	Ready      bool              `json:"ready"`
	Message    string            `json:"message,omitempty"`
	Components map[string]string `json:"components,omitempty"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// HealthChecker checks the health of the service.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// Pinger is anything that can verify its backend connection.
// Both the PostgreSQL pool and the Redis client satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CompositeChecker pings a set of named backends.
// The service is unhealthy if any required backend fails; optional
// backends only degrade the status message.
type CompositeChecker struct {
	required map[string]Pinger
	optional map[string]Pinger
	timeout  time.Duration
}

// NewCompositeChecker creates a health checker over named backends.
func NewCompositeChecker() *CompositeChecker {
	return &CompositeChecker{
		required: make(map[string]Pinger),
		optional: make(map[string]Pinger),
		timeout:  3 * time.Second,
	}
}

// Require registers a backend that must be reachable for the service to
// be healthy.
func (c *CompositeChecker) Require(name string, p Pinger) *CompositeChecker {
	c.required[name] = p
	return c
}

// Optional registers a backend whose failure degrades but does not fail
// the health check. The leaderboard cache is optional: queries fall back
// to recomputing from the database.
func (c *CompositeChecker) Optional(name string, p Pinger) *CompositeChecker {
	c.optional[name] = p
	return c
}

// Check pings all registered backends.
func (c *CompositeChecker) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status := HealthStatus{
		Healthy:    true,
		Ready:      true,
		Components: make(map[string]string, len(c.required)+len(c.optional)),
		CheckedAt:  time.Now().UTC(),
	}

	for name, p := range c.required {
		if err := p.Ping(ctx); err != nil {
			status.Healthy = false
			status.Ready = false
			status.Message = name + " unreachable"
			status.Components[name] = "down: " + err.Error()
			continue
		}
		status.Components[name] = "up"
	}

	for name, p := range c.optional {
		if err := p.Ping(ctx); err != nil {
			if status.Message == "" {
				status.Message = name + " degraded"
			}
			status.Components[name] = "degraded: " + err.Error()
			continue
		}
		status.Components[name] = "up"
	}

	return status
}
