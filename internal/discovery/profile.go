// Package discovery builds the /.well-known/ucp profile document: the
// static protocol descriptor plus the backend's live payment handlers.
package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/commercebridge/ucp-gateway/internal/backend"
	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

// Profile is the discovery document served at /.well-known/ucp.
type Profile struct {
	UCP         ProfileEnvelope `json:"ucp"`
	Payment     PaymentBlock    `json:"payment"`
	SigningKeys any             `json:"signing_keys"`
}

// ProfileEnvelope advertises protocol version, services and
// capabilities.
type ProfileEnvelope struct {
	Version      string                  `json:"version"`
	Services     map[string]ServiceEntry `json:"services"`
	Capabilities []ucp.Capability        `json:"capabilities"`
}

// ServiceEntry describes one advertised service binding.
type ServiceEntry struct {
	Version  string    `json:"version"`
	Spec     string    `json:"spec"`
	REST     *RESTInfo `json:"rest"`
	MCP      any       `json:"mcp"`
	A2A      any       `json:"a2a"`
	Embedded any       `json:"embedded"`
}

// RESTInfo points at the REST binding of a service.
type RESTInfo struct {
	Schema   string `json:"schema"`
	Endpoint string `json:"endpoint"`
}

// PaymentBlock lists the handlers accepted at completion time.
type PaymentBlock struct {
	Handlers []ucp.PaymentHandler `json:"handlers"`
}

// Service produces discovery profiles.
type Service interface {
	Profile(ctx context.Context) (*Profile, error)
}

type service struct {
	adapter backend.Adapter
	baseURL string
}

// NewService wires the profile builder. baseURL is the public endpoint
// advertised in the REST binding.
func NewService(adapter backend.Adapter, baseURL string) (Service, error) {
	if adapter == nil {
		return nil, fmt.Errorf("backend adapter required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("base URL required")
	}
	return &service{adapter: adapter, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func strPtr(value string) *string { return &value }

// Profile assembles the document, asking the backend for its enabled
// payment handlers.
func (s *service) Profile(ctx context.Context) (*Profile, error) {
	handlers, err := s.adapter.PaymentHandlers(ctx)
	if err != nil {
		return nil, err
	}
	if handlers == nil {
		handlers = []ucp.PaymentHandler{}
	}

	return &Profile{
		UCP: ProfileEnvelope{
			Version: ucp.Version,
			Services: map[string]ServiceEntry{
				ucp.ServiceShopping: {
					Version: ucp.Version,
					Spec:    "https://ucp.dev/specs/shopping",
					REST: &RESTInfo{
						Schema:   "https://ucp.dev/services/shopping/openapi.json",
						Endpoint: s.baseURL + "/",
					},
				},
			},
			Capabilities: []ucp.Capability{
				{
					Name:    ucp.CapabilityCheckout,
					Version: ucp.Version,
					Spec:    strPtr("https://ucp.dev/specs/shopping/checkout"),
					Schema:  strPtr("https://ucp.dev/schemas/shopping/checkout.json"),
				},
				{
					Name:    ucp.CapabilityFulfillment,
					Version: ucp.Version,
					Spec:    strPtr("https://ucp.dev/specs/shopping/fulfillment"),
					Schema:  strPtr("https://ucp.dev/schemas/shopping/fulfillment.json"),
					Extends: strPtr(ucp.CapabilityCheckout),
				},
			},
		},
		Payment: PaymentBlock{Handlers: handlers},
	}, nil
}
