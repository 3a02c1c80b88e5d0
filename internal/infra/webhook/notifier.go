// Package webhook delivers new-transaction events to an external HTTP
// endpoint as JSON POSTs.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/txsentinel/txsentinel/internal/addrwatch"
	"github.com/txsentinel/txsentinel/internal/pkg/resilience/retry"

	"github.com/hashicorp/go-retryablehttp"
)

// payload is the webhook body: {"event":"new_transaction","network":...,
// "transaction":{...}}.
type payload struct {
	Event       string                `json:"event"`
	Network     string                `json:"network"`
	Transaction addrwatch.Transaction `json:"transaction"`
}

const eventNewTransaction = "new_transaction"

type notifier struct {
	endpoint   string
	httpClient *retryablehttp.Client
	retry      retry.Retry
}

var _ addrwatch.TransactionNotifier = (*notifier)(nil)

type config struct {
	retry retry.Retry
}

// Option configures the webhook notifier.
type Option func(*config)

// WithRetry adds delivery retries on top of the HTTP client's own transport
// retries. Without it each notification is attempted once.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// New creates a notifier posting to the given endpoint.
func New(endpoint string, httpClient *retryablehttp.Client, opts ...Option) *notifier {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	return &notifier{
		endpoint:   endpoint,
		httpClient: httpClient,
		retry:      cfg.retry,
	}
}

func (n *notifier) post(ctx context.Context, body []byte) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, "POST", n.endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("webhook endpoint answered status %d", res.StatusCode)
	}

	return nil
}

func (n *notifier) NotifyTransaction(ctx context.Context, network string, tx addrwatch.Transaction) error {
	body, err := json.Marshal(payload{
		Event:       eventNewTransaction,
		Network:     network,
		Transaction: tx,
	})
	if err != nil {
		return err
	}

	if n.retry != nil {
		return n.retry.Execute(ctx, func() error {
			return n.post(ctx, body)
		})
	}

	return n.post(ctx, body)
}
