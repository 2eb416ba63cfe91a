package newsletter

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSimulatedLatency is the acknowledgement delay used when none is
// configured.
const DefaultSimulatedLatency = time.Second

// SimulatedProvider acknowledges subscriptions locally after a fixed latency.
// It is the default when no provider URL is configured.
type SimulatedProvider struct {
	logger  *slog.Logger
	latency time.Duration
}

// NewSimulatedProvider creates a simulated provider. A non-positive latency
// falls back to DefaultSimulatedLatency.
func NewSimulatedProvider(logger *slog.Logger, latency time.Duration) *SimulatedProvider {
	if latency <= 0 {
		latency = DefaultSimulatedLatency
	}
	return &SimulatedProvider{
		logger:  logger,
		latency: latency,
	}
}

// Name identifies the provider in logs.
func (p *SimulatedProvider) Name() string {
	return "simulated"
}

// Subscribe waits for the configured latency, then acknowledges. It returns
// early with the context error if the context is cancelled first.
func (p *SimulatedProvider) Subscribe(ctx context.Context, email string) error {
	timer := time.NewTimer(p.latency)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.logger.InfoContext(ctx, "newsletter subscription acknowledged",
		slog.String("provider", p.Name()),
		slog.String("email", email),
	)

	return nil
}
