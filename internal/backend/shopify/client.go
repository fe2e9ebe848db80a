// Package shopify adapts the Shopify Storefront GraphQL API to the
// backend contract. Shopify hosts its own checkout page, so cart
// finalization is deferred rather than producing an order directly.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/commercebridge/ucp-gateway/pkg/config"
	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/logger"
)

const storefrontTokenHeader = "X-Shopify-Storefront-Access-Token"

var (
	errShopDomainRequired = errors.New("shopify shop domain is required")
	errTokenRequired      = errors.New("shopify storefront token is required")
	errLoggerRequired     = errors.New("shopify logger is required")
)

// Client wraps the Storefront GraphQL endpoint with auth, timeouts and
// error mapping.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	logger     *logger.Logger
}

// NewClient validates the credentials and builds the GraphQL client.
func NewClient(cfg config.ShopifyConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	domain := strings.TrimSpace(cfg.ShopDomain)
	if domain == "" {
		return nil, errShopDomainRequired
	}
	token := strings.TrimSpace(cfg.StorefrontToken)
	if token == "" {
		return nil, errTokenRequired
	}

	endpoint := fmt.Sprintf("https://%s/api/%s/graphql.json", domain, cfg.APIVersion)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		token:      token,
		logger:     logg,
	}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// query runs one GraphQL operation and decodes the data payload into out.
func (c *Client) query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding storefront request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building storefront request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(storefrontTokenHeader, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeBackend, err, "storefront API unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeBackend, fmt.Sprintf("storefront API returned %d", resp.StatusCode))
	}

	var envelope graphQLEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeBackend, err, "decoding storefront response")
	}
	if len(envelope.Errors) > 0 {
		return pkgerrors.New(pkgerrors.CodeBackend, fmt.Sprintf("storefront API error: %s", envelope.Errors[0].Message))
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeBackend, err, "decoding storefront data")
		}
	}
	return nil
}

// toGlobalID converts a bare resource id to a Shopify global id.
func toGlobalID(kind, id string) string {
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	return fmt.Sprintf("gid://shopify/%s/%s", kind, id)
}

// extractID pulls the trailing id segment off a Shopify global id.
func extractID(gid string) string {
	if gid == "" {
		return ""
	}
	parts := strings.Split(gid, "/")
	return parts[len(parts)-1]
}
