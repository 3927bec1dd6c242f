package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPrimaryRetries is the default attempt count against the primary
	DefaultPrimaryRetries = 3
	// DefaultRetryBaseDelay is the starting backoff delay, doubled per retry
	DefaultRetryBaseDelay = 500 * time.Millisecond
)

// Gateway fronts an ordered pair of providers: a hosted primary with a retry
// policy and a local secondary tried exactly once after the primary is
// exhausted. The retry delay formula and attempt count are configuration,
// never derived from response content.
type Gateway struct {
	primary   Provider
	secondary Provider
	retries   int
	baseDelay time.Duration
	logger    *zap.Logger

	// Secondary liveness is probed once and cached for the process lifetime,
	// or until Reset.
	mu         sync.Mutex
	probed     bool
	probeAlive bool
}

// NewGateway creates a gateway over a primary and an optional secondary provider
func NewGateway(primary, secondary Provider, retries int, baseDelay time.Duration, logger *zap.Logger) *Gateway {
	if retries <= 0 {
		retries = DefaultPrimaryRetries
	}
	if baseDelay <= 0 {
		baseDelay = DefaultRetryBaseDelay
	}
	return &Gateway{
		primary:   primary,
		secondary: secondary,
		retries:   retries,
		baseDelay: baseDelay,
		logger:    logger,
	}
}

// Generate runs the failover protocol: primary with retries and exponential
// backoff, then one secondary attempt if the secondary probes live. A timeout
// is treated like any other provider failure.
func (g *Gateway) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	var primaryErr error

	for attempt := 0; attempt < g.retries; attempt++ {
		if attempt > 0 {
			delay := g.baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				// Keep the last attempt's failure as the diagnosed cause;
				// the cancellation only explains why retrying stopped.
				return "", &ModelUnavailableError{
					PrimaryErr: fmt.Errorf("retries abandoned (%v): %w", ctx.Err(), primaryErr),
				}
			case <-time.After(delay):
			}
		}

		out, err := g.primary.Generate(ctx, req)
		if err == nil {
			return out, nil
		}
		primaryErr = err

		if g.logger != nil {
			g.logger.Warn("primary_provider_attempt_failed",
				zap.String("provider", g.primary.Name()),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", g.retries),
				zap.Error(err),
			)
		}
	}

	if g.secondary == nil {
		return "", &ModelUnavailableError{PrimaryErr: primaryErr}
	}

	if err := g.secondaryAlive(ctx); err != nil {
		return "", &ModelUnavailableError{PrimaryErr: primaryErr, SecondaryErr: err}
	}

	if g.logger != nil {
		g.logger.Info("falling_back_to_secondary_provider",
			zap.String("provider", g.secondary.Name()),
		)
	}

	out, err := g.secondary.Generate(ctx, req)
	if err != nil {
		return "", &ModelUnavailableError{PrimaryErr: primaryErr, SecondaryErr: err}
	}
	return out, nil
}

// secondaryAlive returns nil if the cached or freshly probed liveness check
// passed. The result sticks until ResetProbe.
func (g *Gateway) secondaryAlive(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.probed {
		if g.probeAlive {
			return nil
		}
		return errSecondaryDown
	}

	err := g.secondary.HealthCheck(ctx)
	g.probed = true
	g.probeAlive = err == nil
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("secondary_provider_probe_failed",
				zap.String("provider", g.secondary.Name()),
				zap.Error(err),
			)
		}
		return err
	}
	return nil
}

// ResetProbe clears the cached secondary liveness result
func (g *Gateway) ResetProbe() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.probed = false
	g.probeAlive = false
}

type secondaryDownError struct{}

func (secondaryDownError) Error() string { return "secondary provider previously probed down" }

var errSecondaryDown = secondaryDownError{}
