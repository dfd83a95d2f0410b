package sfpark

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"sfpark-collector/config"
)

// Fetcher retrieves one availability document from the service.
type Fetcher interface {
	Fetch(ctx context.Context) (*Document, error)
}

// Client is the HTTP Fetcher for the SFpark availability service. It issues
// exactly one request per Fetch and never retries.
type Client struct {
	endpoint string
	query    url.Values
	client   *http.Client
}

// NewClient creates a client from the collector configuration.
func NewClient(cfg config.CollectorConfig) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			zap.L().Warn("invalid proxy URL, fetching without proxy",
				zap.String("proxy", cfg.HTTPProxy),
				zap.Error(err),
			)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		endpoint: cfg.URL,
		query:    QueryParams(cfg.Query),
		client: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
	}
}

// QueryParams builds the fixed request parameters.
func QueryParams(q config.QueryConfig) url.Values {
	return url.Values{
		"RADIUS":   {q.Radius},
		"UOM":      {q.Unit},
		"RESPONSE": {q.Response},
		"TYPE":     {q.Type},
		"PRICING":  {q.Pricing},
	}
}

// Fetch performs the request and decodes the response body. Provider-level
// failures (STATUS != SUCCESS) are not an error here; see Normalize.
func (c *Client) Fetch(ctx context.Context) (*Document, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, eris.Wrapf(err, "sfpark: parse endpoint %q", c.endpoint)
	}
	q := u.Query()
	for k, v := range c.query {
		q[k] = v
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "sfpark: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "sfpark: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("sfpark: unexpected status %d from %s", resp.StatusCode, c.endpoint)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "sfpark: read response body")
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, eris.Wrap(err, "sfpark: decode response")
	}
	return &doc, nil
}
