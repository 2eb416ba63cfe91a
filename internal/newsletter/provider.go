// Package newsletter delivers subscription acknowledgements to a newsletter
// provider. The simulated provider stands in for a real delivery backend and
// completes after a configurable latency; the HTTP provider posts to an
// external endpoint behind a circuit breaker.
package newsletter

import "context"

// Provider acknowledges a newsletter subscription with a delivery backend.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// Subscribe acknowledges the subscription for the given email address.
	Subscribe(ctx context.Context, email string) error
}
