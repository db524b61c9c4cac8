package checks

import (
	"context"
	"time"

	"github.com/strivetech/saiplatform/internal/monitoring"
)

// Pinger is satisfied by cache stores that can verify their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache returns a readiness probe for the shared cache. A nil pinger means
// the database-backed store is in use, which the database probe covers.
func Cache(pinger Pinger, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("cache", func(ctx context.Context) monitoring.ProbeResult {
		if pinger == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "database store"}
		}

		start := time.Now()
		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout))
		defer cancel()

		result := monitoring.ResultFromError(pinger.Ping(probeCtx), time.Since(start))
		if result.Status == monitoring.StatusDown {
			// Cache failures degrade view caching and rate limiting but never block requests.
			result.Status = monitoring.StatusDegraded
		}
		return result
	})
}
