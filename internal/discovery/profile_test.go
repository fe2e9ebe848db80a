package discovery

import (
	"context"
	"testing"

	"github.com/commercebridge/ucp-gateway/internal/backend"
	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

type handlerStub struct {
	backend.Adapter
	handlers []ucp.PaymentHandler
}

func (h *handlerStub) PaymentHandlers(context.Context) ([]ucp.PaymentHandler, error) {
	return h.handlers, nil
}

func TestProfileAdvertisesCapabilitiesAndHandlers(t *testing.T) {
	adapter := &handlerStub{handlers: []ucp.PaymentHandler{{ID: "shop_pay", Name: "com.shopify.shop_pay"}}}
	svc, err := NewService(adapter, "https://gateway.example/")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	profile, err := svc.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}

	if profile.UCP.Version != ucp.Version {
		t.Errorf("version = %q", profile.UCP.Version)
	}

	entry, ok := profile.UCP.Services[ucp.ServiceShopping]
	if !ok {
		t.Fatalf("shopping service missing: %+v", profile.UCP.Services)
	}
	if entry.REST == nil || entry.REST.Endpoint != "https://gateway.example/" {
		t.Errorf("rest binding = %+v", entry.REST)
	}

	if len(profile.UCP.Capabilities) != 2 {
		t.Fatalf("capabilities = %+v", profile.UCP.Capabilities)
	}
	if profile.UCP.Capabilities[0].Name != ucp.CapabilityCheckout {
		t.Errorf("first capability = %q", profile.UCP.Capabilities[0].Name)
	}
	if profile.UCP.Capabilities[1].Extends == nil || *profile.UCP.Capabilities[1].Extends != ucp.CapabilityCheckout {
		t.Errorf("fulfillment must extend checkout: %+v", profile.UCP.Capabilities[1])
	}

	if len(profile.Payment.Handlers) != 1 || profile.Payment.Handlers[0].ID != "shop_pay" {
		t.Errorf("handlers = %+v", profile.Payment.Handlers)
	}
}

func TestProfileEmptyHandlersStayNonNil(t *testing.T) {
	svc, _ := NewService(&handlerStub{}, "https://gateway.example")

	profile, err := svc.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.Payment.Handlers == nil {
		t.Errorf("handlers must serialize as [], not null")
	}
}
