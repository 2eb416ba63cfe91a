package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Mehidi-hridoy/dokan/pkg/httpclient"
)

// subscribeRequest is the payload posted to the external provider.
type subscribeRequest struct {
	Email string `json:"email"`
}

// HTTPProvider acknowledges subscriptions by posting to an external endpoint.
// The request goes through a circuit-breaker-wrapped client so a failing
// provider cannot pile up requests.
type HTTPProvider struct {
	client *httpclient.CircuitBreakerClient
	url    string
	logger *slog.Logger
}

// NewHTTPProvider creates an HTTP provider posting to the given URL.
func NewHTTPProvider(client *httpclient.CircuitBreakerClient, url string, logger *slog.Logger) *HTTPProvider {
	return &HTTPProvider{
		client: client,
		url:    url,
		logger: logger,
	}
}

// Name identifies the provider in logs.
func (p *HTTPProvider) Name() string {
	return "http"
}

// Subscribe posts the email to the configured provider endpoint. Any non-2xx
// response is an error.
func (p *HTTPProvider) Subscribe(ctx context.Context, email string) error {
	payload, err := json.Marshal(subscribeRequest{Email: email})
	if err != nil {
		return fmt.Errorf("marshal subscribe request: %w", err)
	}

	resp, err := p.client.Post(ctx, p.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("newsletter provider request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("newsletter provider returned status %d", resp.StatusCode)
	}

	p.logger.InfoContext(ctx, "newsletter subscription acknowledged",
		slog.String("provider", p.Name()),
		slog.String("email", email),
	)

	return nil
}
