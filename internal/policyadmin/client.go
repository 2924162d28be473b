// Package policyadmin fetches the available-product feed from the external
// policy administration system, used as the catalog source when the product
// database is not authoritative.
package policyadmin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/meridian-wealth/renewal-cli/internal/config"
	"github.com/meridian-wealth/renewal-cli/internal/model"
	"github.com/meridian-wealth/renewal-cli/internal/resilience"
)

// Client reads the product options feed over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retry   resilience.RetryConfig
}

// New creates a policy admin client from config.
func New(cfg config.PolicyAdminConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		retry:   resilience.SingleRetry(),
	}
}

// feedResponse is the wire shape of the product options endpoint.
type feedResponse struct {
	Products []model.Product `json:"products"`
}

// GetProducts fetches the sellable product list. Only products flagged
// sellable by the feed are returned.
func (c *Client) GetProducts(ctx context.Context) ([]model.Product, error) {
	retryCfg := c.retry
	retryCfg.OnRetry = resilience.RetryLogger("policy_admin", "get products")

	products, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) ([]model.Product, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if p.CanSell {
			out = append(out, p)
		}
	}
	zap.L().Debug("policyadmin: feed fetched",
		zap.Int("total", len(products)),
		zap.Int("sellable", len(out)),
	)
	return out, nil
}

func (c *Client) fetch(ctx context.Context) ([]model.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/product-options", nil)
	if err != nil {
		return nil, eris.Wrap(err, "policyadmin: build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "policyadmin: get product options"), 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := eris.New(fmt.Sprintf("policyadmin: unexpected status %d", resp.StatusCode))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "policyadmin: read body")
	}

	var feed feedResponse
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, eris.Wrap(err, "policyadmin: decode feed")
	}
	return feed.Products, nil
}
