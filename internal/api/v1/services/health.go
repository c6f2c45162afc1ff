package services

import (
	"context"
	"time"
)

// Pinger is any dependency that can report its reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServiceImpl pings each registered dependency
type HealthServiceImpl struct {
	checks map[string]Pinger
}

// NewHealthService creates a health service over the named dependencies
func NewHealthService(checks map[string]Pinger) *HealthServiceImpl {
	return &HealthServiceImpl{checks: checks}
}

// Check returns "ok" or the error text for each dependency
func (s *HealthServiceImpl) Check(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result := make(map[string]string, len(s.checks))
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			result[name] = err.Error()
			continue
		}
		result[name] = "ok"
	}
	return result
}
