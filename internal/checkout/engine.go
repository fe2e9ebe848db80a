package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/commercebridge/ucp-gateway/internal/backend"
	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/logger"
	"github.com/commercebridge/ucp-gateway/pkg/metrics"
	"github.com/commercebridge/ucp-gateway/pkg/money"
	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

// ItemInput references a purchasable product.
type ItemInput struct {
	ID string `json:"id" validate:"required"`
}

// LineItemInput is one requested line on create or line replacement.
type LineItemInput struct {
	Item     ItemInput `json:"item" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

// CreateRequest is the session creation payload.
type CreateRequest struct {
	LineItems []LineItemInput `json:"line_items" validate:"required,min=1,dive"`
	Buyer     *ucp.Buyer      `json:"buyer"`
	Currency  string          `json:"currency"`
	Payment   *ucp.Payment    `json:"payment"`
}

// UpdateRequest is a partial session update. Nil fields stay untouched.
type UpdateRequest struct {
	LineItems          []LineItemInput    `json:"line_items"`
	Buyer              *ucp.Buyer         `json:"buyer"`
	FulfillmentAddress *ucp.PostalAddress `json:"fulfillment_address"`
}

// CompletionNotifier receives the completion event after a session
// transitions to completed. Implementations must not block or fail the
// completing request.
type CompletionNotifier interface {
	NotifyOrderCompleted(ctx context.Context, session *ucp.CheckoutSession)
}

// Service runs the checkout session lifecycle against one backend.
type Service interface {
	Create(ctx context.Context, req CreateRequest, idempotencyKey string) (*ucp.CheckoutSession, error)
	Get(ctx context.Context, sessionID string) (*ucp.CheckoutSession, error)
	Update(ctx context.Context, sessionID string, req UpdateRequest) (*ucp.CheckoutSession, error)
	Complete(ctx context.Context, sessionID string) (*ucp.CheckoutSession, error)
}

type service struct {
	adapter  backend.Adapter
	store    Store
	ttl      time.Duration
	now      func() time.Time
	logger   *logger.Logger
	metrics  *metrics.CheckoutMetrics
	notifier CompletionNotifier
}

// Option tweaks optional engine collaborators.
type Option func(*service)

// WithMetrics attaches the shared metrics set.
func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(s *service) { s.metrics = m }
}

// WithNotifier attaches the completion event sink.
func WithNotifier(n CompletionNotifier) Option {
	return func(s *service) { s.notifier = n }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService builds the lifecycle engine.
func NewService(adapter backend.Adapter, store Store, ttl time.Duration, logg *logger.Logger, opts ...Option) (Service, error) {
	if adapter == nil {
		return nil, fmt.Errorf("backend adapter required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("positive session ttl required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	s := &service{
		adapter: adapter,
		store:   store,
		ttl:     ttl,
		now:     time.Now,
		logger:  logg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create opens a new session, or returns the existing one when the
// idempotency key has been seen before. The duplicate path never calls
// the backend again.
func (s *service) Create(ctx context.Context, req CreateRequest, idempotencyKey string) (*ucp.CheckoutSession, error) {
	if idempotencyKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	ctx = s.logger.WithIdempotencyKey(s.logger.WithBackend(ctx, s.adapter.Name()), idempotencyKey)

	existing, err := s.store.FindByIdempotencyKey(ctx, s.adapter.Name(), idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info(ctx, "returning existing session for idempotency key")
		session := existing.Session
		return &session, nil
	}

	if err := validateLines(req.LineItems); err != nil {
		return nil, err
	}

	products, lines, err := s.resolveLines(ctx, req.LineItems)
	if err != nil {
		return nil, err
	}

	cart, err := s.adapter.CreateCart(ctx, lines)
	if err != nil {
		return nil, err
	}

	session, err := s.buildSession(cart, products, req)
	if err != nil {
		return nil, err
	}

	claimed, err := s.store.PutNewIdempotencyKey(ctx, s.adapter.Name(), idempotencyKey, session.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// lost the race; the winner's session is authoritative
		winner, err := s.store.FindByIdempotencyKey(ctx, s.adapter.Name(), idempotencyKey)
		if err != nil {
			return nil, err
		}
		if winner != nil {
			existing := winner.Session
			return &existing, nil
		}
	}

	rec := Record{Session: *session, BackendRef: cart.Ref, IdempotencyKey: idempotencyKey}
	if err := s.store.Put(ctx, rec); err != nil {
		return nil, err
	}

	s.metrics.IncSessionCreated(s.adapter.Name())
	ctx = s.logger.WithSessionID(ctx, session.ID)
	s.logger.Info(ctx, "checkout session created")
	return session, nil
}

// Get returns the session, re-deriving it from the backend cart when
// the store entry has expired.
func (s *service) Get(ctx context.Context, sessionID string) (*ucp.CheckoutSession, error) {
	rec, err := s.loadRecord(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session := rec.Session
	return &session, nil
}

// loadRecord is the shared read path: store hit, else backend
// re-derivation, else NotFound. Backend errors on the heal path are
// reported as NotFound per the read contract.
func (s *service) loadRecord(ctx context.Context, sessionID string) (*Record, error) {
	rec, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}

	cart, err := s.adapter.GetCart(ctx, sessionID)
	if err != nil {
		ctx = s.logger.WithSessionID(ctx, sessionID)
		s.logger.Warn(ctx, fmt.Sprintf("session re-derivation failed: %v", err))
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}

	session, err := s.rebuildSession(cart)
	if err != nil {
		return nil, err
	}

	healed := Record{Session: *session, BackendRef: cart.Ref}
	if err := s.store.Put(ctx, healed); err != nil {
		return nil, err
	}
	ctx = s.logger.WithSessionID(ctx, sessionID)
	s.logger.Info(ctx, "session re-derived from backend cart")
	return &healed, nil
}

// Update applies a partial update. Line replacement requires backend
// support; buyer fields merge; the address replaces the prior one.
func (s *service) Update(ctx context.Context, sessionID string, req UpdateRequest) (*ucp.CheckoutSession, error) {
	rec, err := s.loadRecord(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session := rec.Session
	ctx = s.logger.WithSessionID(s.logger.WithBackend(ctx, s.adapter.Name()), sessionID)

	if session.Status == ucp.StatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "completed sessions cannot be updated")
	}

	if len(req.LineItems) > 0 {
		replacer, ok := s.adapter.(backend.LineReplacer)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "backend does not support replacing line items")
		}
		if err := validateLines(req.LineItems); err != nil {
			return nil, err
		}
		products, lines, err := s.resolveLines(ctx, req.LineItems)
		if err != nil {
			return nil, err
		}
		cart, err := replacer.ReplaceLines(ctx, rec.BackendRef, lines)
		if err != nil {
			return nil, err
		}
		lineItems, totals, err := sessionLines(cart, products)
		if err != nil {
			return nil, err
		}
		session.LineItems = lineItems
		session.Totals = totals
	}

	update := backend.CartUpdate{}
	if req.Buyer != nil && req.Buyer.Email != nil {
		update.Email = req.Buyer.Email
	}
	if req.FulfillmentAddress != nil {
		update.ShippingAddress = req.FulfillmentAddress
	}
	if update.Email != nil || update.ShippingAddress != nil {
		cart, err := s.adapter.UpdateCart(ctx, rec.BackendRef, update)
		if err != nil {
			return nil, err
		}
		// the backend is authoritative for the fields it echoes back
		if cart != nil && cart.Email != "" {
			session.Buyer = mergeBuyer(session.Buyer, &ucp.Buyer{Email: &cart.Email})
		}
	}

	if req.Buyer != nil {
		session.Buyer = mergeBuyer(session.Buyer, req.Buyer)
	}
	if req.FulfillmentAddress != nil {
		addr := *req.FulfillmentAddress
		session.FulfillmentAddress = &addr
	}

	rec.Session = session
	if err := s.store.Put(ctx, *rec); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "checkout session updated")
	return &session, nil
}

// Complete finalizes the backend cart and transitions the session to
// completed. Completed sessions return unchanged without touching the
// backend again.
func (s *service) Complete(ctx context.Context, sessionID string) (*ucp.CheckoutSession, error) {
	rec, err := s.loadRecord(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session := rec.Session
	ctx = s.logger.WithSessionID(s.logger.WithBackend(ctx, s.adapter.Name()), sessionID)

	if session.Status == ucp.StatusCompleted {
		s.logger.Info(ctx, "session already completed")
		return &session, nil
	}
	if !session.Status.CanTransition(ucp.StatusCompleted) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("cannot complete session in status %q", session.Status))
	}

	result, err := s.adapter.FinalizeCart(ctx, rec.BackendRef)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeOrderCreation) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeOrderCreation, err, "finalizing backend cart")
	}

	session.Status = ucp.StatusCompleted
	switch result.Outcome {
	case backend.OutcomeOrderCreated:
		orderID := result.OrderID
		permalink := result.PermalinkURL
		session.OrderID = &orderID
		session.OrderPermalinkURL = &permalink
	case backend.OutcomeHostedCheckout:
		// the backend creates the order on its hosted page; reference
		// the session and send the buyer back to the native checkout
		orderID := "order_" + session.ID
		permalink := session.ContinueURL
		session.OrderID = &orderID
		session.OrderPermalinkURL = &permalink
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("unknown finalize outcome %q", result.Outcome))
	}

	rec.Session = session
	if err := s.store.Put(ctx, *rec); err != nil {
		return nil, err
	}

	s.metrics.IncSessionCompleted(s.adapter.Name())
	if s.notifier != nil {
		s.notifier.NotifyOrderCompleted(ctx, &session)
	}
	s.logger.Info(ctx, "checkout session completed")
	return &session, nil
}

func validateLines(lines []LineItemInput) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}
	for _, line := range lines {
		if line.Item.ID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item id is required")
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
	}
	return nil
}

// resolveLines maps requested item ids onto backend products and cart
// lines. Unresolvable references fail the whole request.
func (s *service) resolveLines(ctx context.Context, lines []LineItemInput) (map[string]*backend.Product, []backend.CartLine, error) {
	products := make(map[string]*backend.Product, len(lines))
	cartLines := make([]backend.CartLine, 0, len(lines))
	for _, line := range lines {
		product, err := s.adapter.GetProduct(ctx, line.Item.ID)
		if err != nil {
			return nil, nil, err
		}
		if product == nil {
			return nil, nil, pkgerrors.New(pkgerrors.CodeItemNotFound,
				fmt.Sprintf("item %s not found", line.Item.ID))
		}
		ref := product.VariantRef
		if ref == "" {
			ref = product.ID
		}
		products[ref] = product
		cartLines = append(cartLines, backend.CartLine{VariantRef: ref, Quantity: line.Quantity})
	}
	return products, cartLines, nil
}

// sessionLines converts backend cart items into protocol line items
// plus the derived totals sequence.
func sessionLines(cart *backend.Cart, products map[string]*backend.Product) ([]ucp.LineItem, []ucp.Total, error) {
	lineItems := make([]ucp.LineItem, 0, len(cart.Items))
	var subtotal int64
	for i, item := range cart.Items {
		unitMinor, err := money.ToMinorUnits(item.UnitPrice)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "normalizing line price")
		}
		lineTotal := unitMinor * int64(item.Quantity)
		subtotal += lineTotal

		itemID := item.VariantRef
		title := item.Title
		var imageURL *string
		if product, ok := products[item.VariantRef]; ok && product != nil {
			itemID = product.ID
			if title == "" {
				title = product.Title
			}
			if product.ImageURL != "" {
				url := product.ImageURL
				imageURL = &url
			}
		}

		lineItems = append(lineItems, ucp.LineItem{
			ID: fmt.Sprintf("li_%d", i+1),
			Item: ucp.Item{
				ID:       itemID,
				Title:    title,
				Price:    unitMinor,
				ImageURL: imageURL,
			},
			Quantity: item.Quantity,
			Totals: []ucp.Total{
				{Type: ucp.TotalTotal, DisplayText: "Total", Amount: lineTotal},
			},
		})
	}

	tax, err := optionalMinor(cart.Tax)
	if err != nil {
		return nil, nil, err
	}
	shipping, err := optionalMinor(cart.Shipping)
	if err != nil {
		return nil, nil, err
	}

	totals := []ucp.Total{
		{Type: ucp.TotalSubtotal, DisplayText: "Subtotal", Amount: subtotal},
		{Type: ucp.TotalTax, DisplayText: "Tax", Amount: tax},
	}
	if shipping > 0 {
		totals = append(totals, ucp.Total{Type: ucp.TotalShipping, DisplayText: "Shipping", Amount: shipping})
	}
	totals = append(totals, ucp.Total{Type: ucp.TotalTotal, DisplayText: "Total", Amount: subtotal + tax + shipping})
	return lineItems, totals, nil
}

func optionalMinor(amount string) (int64, error) {
	if amount == "" {
		return 0, nil
	}
	minor, err := money.ToMinorUnits(amount)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "normalizing cart total")
	}
	return minor, nil
}

// buildSession assembles a fresh session from a newly created cart.
// The backend cart reference doubles as the session id so the read
// path can re-derive evicted sessions from the backend alone.
func (s *service) buildSession(cart *backend.Cart, products map[string]*backend.Product, req CreateRequest) (*ucp.CheckoutSession, error) {
	lineItems, totals, err := sessionLines(cart, products)
	if err != nil {
		return nil, err
	}

	currency := cart.Currency
	if currency == "" {
		currency = req.Currency
	}
	if currency == "" {
		currency = "USD"
	}

	expiresAt := s.now().Add(s.ttl).UTC()

	payment := ucp.Payment{Handlers: []ucp.PaymentHandler{}, Instruments: []ucp.PaymentInstrument{}}
	if req.Payment != nil {
		payment = *req.Payment
	}

	return &ucp.CheckoutSession{
		UCP:         ucp.SessionEnvelope(),
		ID:          cart.Ref,
		LineItems:   lineItems,
		Buyer:       req.Buyer,
		Status:      ucp.StatusReadyForComplete,
		Currency:    currency,
		Totals:      totals,
		Messages:    []any{},
		Links:       []any{},
		ExpiresAt:   &expiresAt,
		ContinueURL: cart.ContinueURL,
		Payment:     payment,
	}, nil
}

// rebuildSession reconstructs a session from a backend cart during the
// read self-heal path.
func (s *service) rebuildSession(cart *backend.Cart) (*ucp.CheckoutSession, error) {
	lineItems, totals, err := sessionLines(cart, nil)
	if err != nil {
		return nil, err
	}

	currency := cart.Currency
	if currency == "" {
		currency = "USD"
	}
	status := ucp.StatusReadyForComplete
	if cart.Completed {
		status = ucp.StatusCompleted
	}

	var buyer *ucp.Buyer
	if cart.Email != "" {
		email := cart.Email
		buyer = &ucp.Buyer{Email: &email}
	}

	expiresAt := s.now().Add(s.ttl).UTC()
	return &ucp.CheckoutSession{
		UCP:         ucp.SessionEnvelope(),
		ID:          cart.Ref,
		LineItems:   lineItems,
		Buyer:       buyer,
		Status:      status,
		Currency:    currency,
		Totals:      totals,
		Messages:    []any{},
		Links:       []any{},
		ExpiresAt:   &expiresAt,
		ContinueURL: cart.ContinueURL,
		Payment:     ucp.Payment{Handlers: []ucp.PaymentHandler{}, Instruments: []ucp.PaymentInstrument{}},
	}, nil
}

// mergeBuyer overlays non-nil incoming fields on the existing buyer.
func mergeBuyer(existing, incoming *ucp.Buyer) *ucp.Buyer {
	if incoming == nil {
		return existing
	}
	if existing == nil {
		copied := *incoming
		return &copied
	}
	merged := *existing
	if incoming.FirstName != nil {
		merged.FirstName = incoming.FirstName
	}
	if incoming.LastName != nil {
		merged.LastName = incoming.LastName
	}
	if incoming.FullName != nil {
		merged.FullName = incoming.FullName
	}
	if incoming.Email != nil {
		merged.Email = incoming.Email
	}
	if incoming.PhoneNumber != nil {
		merged.PhoneNumber = incoming.PhoneNumber
	}
	return &merged
}
