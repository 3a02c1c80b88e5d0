// Package explorer is the HTTP gateway to etherscan-family block explorer
// APIs. It implements the address monitor's transaction listing and the
// compliance gate's confirmation lookups.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/txsentinel/txsentinel/internal/addrwatch"
	"github.com/txsentinel/txsentinel/internal/compliance"

	"github.com/hashicorp/go-retryablehttp"
)

var (
	// ErrUnknownNetwork is a configuration error: the requested network has
	// no endpoint entry or is not one of the supported names. It is raised
	// at construction, before any I/O.
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrExplorerFailure means the explorer API answered with a non-success
	// status or an error payload. The whole poll fails; no partial results
	// are returned.
	ErrExplorerFailure = errors.New("explorer request failed")
)

// supportedNetworks enumerates the networks an endpoint table may configure.
var supportedNetworks = map[string]struct{}{
	"btc": {},
	"eth": {},
	"bsc": {},
}

// Endpoints maps a network name to its explorer API base URL.
type Endpoints map[string]string

// DefaultEndpoints returns the stock endpoint table for the supported
// networks.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		"eth": "https://api.etherscan.io/api",
		"bsc": "https://api.bscscan.com/api",
		"btc": "https://api.blockchair.com/bitcoin",
	}
}

type client struct {
	network    string
	baseURL    string
	httpClient *retryablehttp.Client
	apiKey     string
}

var (
	_ addrwatch.Explorer            = (*client)(nil)
	_ compliance.ConfirmationSource = (*client)(nil)
)

type config struct {
	apiKey string
}

// Option configures the explorer client.
type Option func(*config)

// WithAPIKey attaches an explorer API key to every request.
func WithAPIKey(key string) Option {
	return func(c *config) {
		c.apiKey = key
	}
}

// NewClient builds an explorer gateway for one network. The endpoint table
// is validated eagerly: an entry outside the supported set, or a requested
// network without an entry, fails with ErrUnknownNetwork before any request
// is made.
func NewClient(network string, endpoints Endpoints, httpClient *retryablehttp.Client, opts ...Option) (*client, error) {
	for name := range endpoints {
		if _, ok := supportedNetworks[name]; !ok {
			return nil, fmt.Errorf("%w: endpoint table has entry %q", ErrUnknownNetwork, name)
		}
	}

	baseURL, ok := endpoints[network]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}

	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	return &client{
		network:    network,
		baseURL:    baseURL,
		httpClient: httpClient,
		apiKey:     cfg.apiKey,
	}, nil
}

// get performs one explorer API call and decodes the envelope's result field
// into out. Connection failures, non-2xx statuses, undecodable bodies and
// API-level errors all surface as errors.
func (c *client) get(ctx context.Context, params url.Values, out any) error {
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExplorerFailure, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%w: unexpected status %d", ErrExplorerFailure, res.StatusCode)
	}

	var envelope struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrExplorerFailure, err)
	}

	if envelope.Status != "1" {
		// The etherscan family reports an empty transaction list as an
		// error-status response.
		if envelope.Message == "No transactions found" {
			return errNoResults
		}
		return fmt.Errorf("%w: %s", ErrExplorerFailure, envelope.Message)
	}

	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("%w: decoding result: %v", ErrExplorerFailure, err)
	}

	return nil
}

// errNoResults is internal: an empty result set is not a failure.
var errNoResults = errors.New("no results")
