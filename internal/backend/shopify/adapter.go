package shopify

import (
	"context"
	"fmt"
	"strings"

	"github.com/commercebridge/ucp-gateway/internal/backend"
	"github.com/commercebridge/ucp-gateway/pkg/config"
	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/logger"
	"github.com/commercebridge/ucp-gateway/pkg/money"
	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

// Adapter drives a Shopify shop through the Storefront API.
type Adapter struct {
	client *Client
	shopID string
	limit  int
	logger *logger.Logger
}

// New builds the Shopify adapter from config.
func New(cfg config.ShopifyConfig, logg *logger.Logger) (*Adapter, error) {
	client, err := NewClient(cfg, logg)
	if err != nil {
		return nil, err
	}

	limit := cfg.ProductPageLimit
	if limit <= 0 {
		limit = 10
	}

	return &Adapter{
		client: client,
		shopID: cfg.ShopID,
		limit:  limit,
		logger: logg,
	}, nil
}

// newWithClient wires a prebuilt client, used by tests.
func newWithClient(client *Client, shopID string, logg *logger.Logger) *Adapter {
	return &Adapter{client: client, shopID: shopID, limit: 10, logger: logg}
}

func (a *Adapter) Name() string { return "shopify" }

const productsQuery = `
query GetProducts($first: Int!) {
  products(first: $first) {
    edges {
      node {
        id
        title
        description
        variants(first: 1) {
          edges {
            node {
              id
              price { amount currencyCode }
              availableForSale
            }
          }
        }
        images(first: 1) {
          edges { node { url } }
        }
      }
    }
  }
}`

const productQuery = `
query GetProduct($id: ID!) {
  product(id: $id) {
    id
    title
    description
    variants(first: 1) {
      edges {
        node {
          id
          price { amount currencyCode }
          availableForSale
        }
      }
    }
    images(first: 1) {
      edges { node { url } }
    }
  }
}`

type moneyNode struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type variantNode struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Price            moneyNode `json:"price"`
	AvailableForSale bool      `json:"availableForSale"`
}

type productNode struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Variants    struct {
		Edges []struct {
			Node variantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
	Images struct {
		Edges []struct {
			Node struct {
				URL string `json:"url"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"images"`
}

// ListProducts pages through the shop catalog, one variant per product.
func (a *Adapter) ListProducts(ctx context.Context, limit int) ([]backend.Product, error) {
	if limit <= 0 {
		limit = a.limit
	}

	var payload struct {
		Products struct {
			Edges []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}
	if err := a.client.query(ctx, productsQuery, map[string]any{"first": limit}, &payload); err != nil {
		return nil, err
	}

	products := make([]backend.Product, 0, len(payload.Products.Edges))
	for _, edge := range payload.Products.Edges {
		product, err := mapProduct(edge.Node)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, nil
}

// GetProduct resolves one product by bare id. Returns nil when Shopify
// does not know the product.
func (a *Adapter) GetProduct(ctx context.Context, id string) (*backend.Product, error) {
	var payload struct {
		Product *productNode `json:"product"`
	}
	vars := map[string]any{"id": toGlobalID("Product", id)}
	if err := a.client.query(ctx, productQuery, vars, &payload); err != nil {
		return nil, err
	}
	if payload.Product == nil {
		return nil, nil
	}
	return mapProduct(*payload.Product)
}

func mapProduct(node productNode) (*backend.Product, error) {
	product := &backend.Product{
		ID:          extractID(node.ID),
		Title:       node.Title,
		Description: node.Description,
		Currency:    "USD",
	}
	if len(node.Images.Edges) > 0 {
		product.ImageURL = node.Images.Edges[0].Node.URL
	}
	if len(node.Variants.Edges) > 0 {
		variant := node.Variants.Edges[0].Node
		minor, err := money.ToMinorUnits(variant.Price.Amount)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "parsing variant price")
		}
		product.PriceMinor = minor
		product.Currency = variant.Price.CurrencyCode
		product.Available = variant.AvailableForSale
		product.VariantRef = extractID(variant.ID)
	}
	return product, nil
}

const checkoutCreateMutation = `
mutation CreateCheckout($input: CheckoutCreateInput!) {
  checkoutCreate(input: $input) {
    checkout {
      id
      webUrl
      email
      lineItems(first: 50) {
        edges {
          node {
            title
            quantity
            variant {
              id
              price { amount currencyCode }
            }
          }
        }
      }
      subtotalPrice { amount currencyCode }
      totalTax { amount currencyCode }
      totalPrice { amount currencyCode }
    }
    checkoutUserErrors { field message }
  }
}`

const checkoutQuery = `
query GetCheckout($id: ID!) {
  node(id: $id) {
    ... on Checkout {
      id
      webUrl
      email
      lineItems(first: 50) {
        edges {
          node {
            title
            quantity
            variant {
              id
              price { amount currencyCode }
            }
          }
        }
      }
      subtotalPrice { amount currencyCode }
      totalTax { amount currencyCode }
      totalPrice { amount currencyCode }
    }
  }
}`

const emailUpdateMutation = `
mutation UpdateCheckoutEmail($checkoutId: ID!, $email: String!) {
  checkoutEmailUpdateV2(checkoutId: $checkoutId, email: $email) {
    checkout { id email }
    checkoutUserErrors { field message }
  }
}`

const shippingAddressUpdateMutation = `
mutation UpdateShippingAddress($checkoutId: ID!, $shippingAddress: MailingAddressInput!) {
  checkoutShippingAddressUpdateV2(checkoutId: $checkoutId, shippingAddress: $shippingAddress) {
    checkout { id }
    checkoutUserErrors { field message }
  }
}`

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type checkoutNode struct {
	ID        string `json:"id"`
	WebURL    string `json:"webUrl"`
	Email     string `json:"email"`
	LineItems struct {
		Edges []struct {
			Node struct {
				Title    string `json:"title"`
				Quantity int    `json:"quantity"`
				Variant  struct {
					ID    string    `json:"id"`
					Price moneyNode `json:"price"`
				} `json:"variant"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"lineItems"`
	SubtotalPrice moneyNode `json:"subtotalPrice"`
	TotalTax      moneyNode `json:"totalTax"`
	TotalPrice    moneyNode `json:"totalPrice"`
}

func mapCheckout(node checkoutNode) *backend.Cart {
	cart := &backend.Cart{
		Ref:         extractID(node.ID),
		ContinueURL: node.WebURL,
		Email:       node.Email,
		Currency:    node.TotalPrice.CurrencyCode,
		Subtotal:    node.SubtotalPrice.Amount,
		Tax:         node.TotalTax.Amount,
		Total:       node.TotalPrice.Amount,
	}
	if cart.Currency == "" {
		cart.Currency = node.SubtotalPrice.CurrencyCode
	}
	for _, edge := range node.LineItems.Edges {
		cart.Items = append(cart.Items, backend.CartItem{
			VariantRef: extractID(edge.Node.Variant.ID),
			Title:      edge.Node.Title,
			Quantity:   edge.Node.Quantity,
			UnitPrice:  edge.Node.Variant.Price.Amount,
		})
	}
	return cart
}

func userErrorsToValidation(errs []userError) error {
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	msg := first.Message
	if len(first.Field) > 0 {
		msg = fmt.Sprintf("%s: %s", strings.Join(first.Field, "."), first.Message)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg)
}

// CreateCart starts a Shopify checkout with the requested lines.
func (a *Adapter) CreateCart(ctx context.Context, lines []backend.CartLine) (*backend.Cart, error) {
	lineItems := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		lineItems = append(lineItems, map[string]any{
			"variantId": toGlobalID("ProductVariant", line.VariantRef),
			"quantity":  line.Quantity,
		})
	}

	var payload struct {
		CheckoutCreate struct {
			Checkout          *checkoutNode `json:"checkout"`
			CheckoutUserErrors []userError  `json:"checkoutUserErrors"`
		} `json:"checkoutCreate"`
	}
	vars := map[string]any{"input": map[string]any{"lineItems": lineItems}}
	if err := a.client.query(ctx, checkoutCreateMutation, vars, &payload); err != nil {
		return nil, err
	}
	if err := userErrorsToValidation(payload.CheckoutCreate.CheckoutUserErrors); err != nil {
		return nil, err
	}
	if payload.CheckoutCreate.Checkout == nil {
		return nil, pkgerrors.New(pkgerrors.CodeBackend, "checkoutCreate returned no checkout")
	}
	return mapCheckout(*payload.CheckoutCreate.Checkout), nil
}

// GetCart loads a checkout by its bare id. Returns nil when the node
// lookup resolves to nothing.
func (a *Adapter) GetCart(ctx context.Context, ref string) (*backend.Cart, error) {
	var payload struct {
		Node *checkoutNode `json:"node"`
	}
	vars := map[string]any{"id": toGlobalID("Checkout", ref)}
	if err := a.client.query(ctx, checkoutQuery, vars, &payload); err != nil {
		return nil, err
	}
	if payload.Node == nil || payload.Node.ID == "" {
		return nil, nil
	}
	return mapCheckout(*payload.Node), nil
}

// UpdateCart pushes email and shipping address changes, then re-reads
// the checkout so callers get the re-quoted totals.
func (a *Adapter) UpdateCart(ctx context.Context, ref string, update backend.CartUpdate) (*backend.Cart, error) {
	gid := toGlobalID("Checkout", ref)

	if update.Email != nil {
		var payload struct {
			CheckoutEmailUpdateV2 struct {
				CheckoutUserErrors []userError `json:"checkoutUserErrors"`
			} `json:"checkoutEmailUpdateV2"`
		}
		vars := map[string]any{"checkoutId": gid, "email": *update.Email}
		if err := a.client.query(ctx, emailUpdateMutation, vars, &payload); err != nil {
			return nil, err
		}
		if err := userErrorsToValidation(payload.CheckoutEmailUpdateV2.CheckoutUserErrors); err != nil {
			return nil, err
		}
	}

	if update.ShippingAddress != nil {
		var payload struct {
			CheckoutShippingAddressUpdateV2 struct {
				CheckoutUserErrors []userError `json:"checkoutUserErrors"`
			} `json:"checkoutShippingAddressUpdateV2"`
		}
		vars := map[string]any{
			"checkoutId":      gid,
			"shippingAddress": mailingAddressInput(*update.ShippingAddress),
		}
		if err := a.client.query(ctx, shippingAddressUpdateMutation, vars, &payload); err != nil {
			return nil, err
		}
		if err := userErrorsToValidation(payload.CheckoutShippingAddressUpdateV2.CheckoutUserErrors); err != nil {
			return nil, err
		}
	}

	return a.GetCart(ctx, ref)
}

func mailingAddressInput(addr ucp.PostalAddress) map[string]any {
	input := map[string]any{
		"address1": addr.StreetAddress,
		"city":     addr.AddressLocality,
		"province": addr.AddressRegion,
		"zip":      addr.PostalCode,
		"country":  addr.AddressCountry,
	}
	if addr.FullName != nil {
		first, last := splitFullName(*addr.FullName)
		input["firstName"] = first
		input["lastName"] = last
	}
	return input
}

func splitFullName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// FinalizeCart confirms the checkout still exists and defers order
// creation to Shopify's hosted page.
func (a *Adapter) FinalizeCart(ctx context.Context, ref string) (*backend.FinalizeResult, error) {
	cart, err := a.GetCart(ctx, ref)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout not found")
	}
	return &backend.FinalizeResult{Outcome: backend.OutcomeHostedCheckout}, nil
}

// PaymentHandlers advertises the shop_pay handler for this shop.
func (a *Adapter) PaymentHandlers(ctx context.Context) ([]ucp.PaymentHandler, error) {
	shopID := a.shopID
	if shopID == "" {
		shopID = "shop_default"
	}
	return []ucp.PaymentHandler{
		{
			ID:           "shop_pay",
			Name:         "com.shopify.shop_pay",
			Version:      ucp.Version,
			Spec:         "https://shopify.dev/ucp/handlers/shop_pay",
			ConfigSchema: "https://shopify.dev/ucp/handlers/shop_pay/config.json",
			InstrumentSchemas: []string{
				"https://shopify.dev/ucp/handlers/shop_pay/instrument.json",
			},
			Config: map[string]any{"shop_id": shopID},
		},
	}, nil
}
