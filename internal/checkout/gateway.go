package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/ledger"
	"github.com/fjod/storefront/internal/lock"
	"github.com/fjod/storefront/internal/payment"
	"github.com/google/uuid"
)

// GatewayWorkflow runs the two-step gateway checkout. Start creates the remote order from the
// cart; Complete consumes the signed callback and turns the cart into a paid order.
type GatewayWorkflow struct {
	catalog catalog.Reader
	stores  Stores
	commit  *committer
	gateway payment.Gateway
	ledger  ledger.Repository
	locker  lock.Locker
	cache   CacheInvalidator
	opts    Options
}

func NewGatewayWorkflow(stores Stores, gw payment.Gateway, ldg ledger.Repository, locker lock.Locker, cache CacheInvalidator, opts Options) *GatewayWorkflow {
	return &GatewayWorkflow{
		catalog: stores.Catalog,
		stores:  stores,
		commit:  newCommitter(stores),
		gateway: gw,
		ledger:  ldg,
		locker:  locker,
		cache:   cache,
		opts:    opts.withDefaults(),
	}
}

func (w *GatewayWorkflow) Mode() domain.CheckoutMode {
	return domain.CheckoutGateway
}

func (w *GatewayWorkflow) Start(ctx context.Context, userID string) (*StartResult, error) {
	res, err := w.start(ctx, userID)
	if err != nil {
		w.opts.Recorder.CheckoutFinished(w.Mode(), "start_"+outcome(err))
	}
	return res, err
}

func (w *GatewayWorkflow) start(ctx context.Context, userID string) (*StartResult, error) {
	if w.gateway.Status() == payment.StatusDisabled {
		return nil, domain.ErrGatewayUnavailable
	}

	unlock, err := w.locker.Lock(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := w.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, it := range c.Items {
		res, err := catalog.Resolve(ctx, w.catalog, it.ProductID, it.VariantID)
		if err != nil {
			return nil, err
		}
		if err := res.Check(it.Quantity); err != nil {
			return nil, err
		}
	}

	amount := domain.ToMinorUnits(c.TotalAmount)
	now := w.opts.Now()
	receipt := fmt.Sprintf("order_%d", now.UnixNano())

	gwOrder, err := w.gateway.CreateOrder(ctx, payment.CreateOrderRequest{
		AmountMinor: amount,
		Currency:    domain.DefaultCurrency,
		Receipt:     receipt,
		Notes:       map[string]string{"userId": userID, "cartId": c.ID},
	})
	if err != nil {
		slog.ErrorContext(ctx, "gateway create order failed", "user_id", userID, "error", err)
		return nil, err
	}

	currency := gwOrder.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	intent := &domain.PaymentIntent{
		GatewayOrderID: gwOrder.ID,
		UserID:         userID,
		CartID:         c.ID,
		Receipt:        receipt,
		AmountMinor:    amount,
		Currency:       currency,
		Status:         domain.IntentCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := w.ledger.CreateIntent(ctx, intent); err != nil {
		slog.ErrorContext(ctx, "failed to persist payment intent", "gateway_order_id", gwOrder.ID, "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "gateway order created", "gateway_order_id", gwOrder.ID, "user_id", userID, "amount", amount)
	return &StartResult{OrderID: gwOrder.ID, Amount: amount, Currency: currency, Key: w.gateway.KeyID()}, nil
}

// Complete verifies the callback and records the order. Once the signature checks out, any
// failure other than an already-consumed callback or an emptied cart is escalated to a
// reconciliation case and reported as *domain.ReconciliationError.
func (w *GatewayWorkflow) Complete(ctx context.Context, userID string, req *CompleteRequest) (*Result, error) {
	res, err := w.complete(ctx, userID, req)
	w.opts.Recorder.CheckoutFinished(w.Mode(), outcome(err))
	return res, err
}

func (w *GatewayWorkflow) complete(ctx context.Context, userID string, req *CompleteRequest) (*Result, error) {
	if req == nil || req.Callback == nil ||
		req.Callback.GatewayOrderID == "" || req.Callback.GatewayPaymentID == "" || req.Callback.Signature == "" {
		return nil, fmt.Errorf("%w: missing payment verification fields", domain.ErrInvalidArgument)
	}
	cb := req.Callback

	if !w.gateway.VerifySignature(cb.GatewayOrderID, cb.GatewayPaymentID, cb.Signature) {
		slog.WarnContext(ctx, "payment signature mismatch",
			"security_event", true,
			"user_id", userID,
			"gateway_order_id", cb.GatewayOrderID,
			"gateway_payment_id", cb.GatewayPaymentID)
		return nil, domain.ErrInvalidSignature
	}

	unlock, err := w.locker.Lock(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := w.loadCart(ctx, userID)
	if errors.Is(err, domain.ErrEmptyCart) {
		return nil, err
	}
	if err != nil {
		return nil, w.escalate(ctx, userID, cb, nil, err)
	}

	intent, err := w.ledger.GetIntent(ctx, cb.GatewayOrderID)
	if err != nil {
		return nil, w.escalate(ctx, userID, cb, nil, err)
	}
	if intent.UserID != userID {
		slog.WarnContext(ctx, "payment callback for another user's order",
			"security_event", true, "user_id", userID, "gateway_order_id", cb.GatewayOrderID)
		return nil, domain.ErrPaymentNotFound
	}

	switch intent.Status {
	case domain.IntentCaptured, domain.IntentReconciliationRequired:
		return nil, domain.ErrPaymentAlreadyProcessed
	case domain.IntentExpired:
		return nil, w.escalate(ctx, userID, cb, intent, domain.ErrPaymentExpired)
	}
	if !intent.Fresh(w.opts.Now(), w.opts.CallbackWindow) {
		return nil, w.escalate(ctx, userID, cb, intent, domain.ErrPaymentExpired)
	}

	if got := domain.ToMinorUnits(c.TotalAmount); got != intent.AmountMinor {
		err := fmt.Errorf("%w: cart total %d does not match paid amount %d", errAmountMismatch, got, intent.AmountMinor)
		return nil, w.escalate(ctx, userID, cb, intent, err)
	}

	items, err := w.snapshot(ctx, c)
	if err != nil {
		return nil, w.escalate(ctx, userID, cb, intent, err)
	}

	now := w.opts.Now()
	order := domain.NewOrder(userID, domain.CheckoutGateway, items, req.ShippingAddress)
	order.PaymentStatus = domain.PaymentStatusPaid
	order.Currency = intent.Currency
	order.Payment = &domain.PaymentRecord{
		GatewayOrderID:   cb.GatewayOrderID,
		GatewayPaymentID: cb.GatewayPaymentID,
		Amount:           intent.AmountMinor,
		Currency:         intent.Currency,
		Status:           domain.PaymentStatusPaid,
		VerifiedAt:       now,
	}

	if err := w.commit.commit(ctx, order, true); err != nil {
		if errors.Is(err, domain.ErrPaymentAlreadyProcessed) {
			return nil, err
		}
		return nil, w.escalate(ctx, userID, cb, intent, err)
	}

	if err := w.ledger.MarkCaptured(ctx, cb.GatewayOrderID, cb.GatewayPaymentID, order.ID); err != nil {
		// the order stands; the case keeps the ledger disagreement visible until resolved
		rc := w.recordCase(ctx, userID, cb, intent, "ledger_mismatch",
			fmt.Errorf("order %s committed but intent not captured: %w", order.ID, err))
		slog.ErrorContext(ctx, "failed to mark intent captured",
			"case_id", rc.ID, "gateway_order_id", cb.GatewayOrderID, "order_id", order.ID, "error", err)
	}
	w.cache.InvalidateCache(userID)

	slog.InfoContext(ctx, "order created", "order_id", order.ID, "user_id", userID, "mode", order.Mode,
		"gateway_payment_id", cb.GatewayPaymentID, "total", order.TotalAmount)
	return &Result{Order: order, PaymentID: cb.GatewayPaymentID}, nil
}

var errAmountMismatch = errors.New("amount mismatch")

func (w *GatewayWorkflow) loadCart(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := w.stores.Carts.GetCart(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil, domain.ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}
	return c, nil
}

// snapshot freezes the cart lines into order items. Prices stay as captured at add time.
func (w *GatewayWorkflow) snapshot(ctx context.Context, c *domain.Cart) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		res, err := catalog.Resolve(ctx, w.catalog, it.ProductID, it.VariantID)
		if err != nil {
			return nil, err
		}
		item := domain.OrderItem{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      res.Product.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		}
		if res.Variant != nil {
			item.SKU = res.Variant.SKU
		}
		items = append(items, item)
	}
	return items, nil
}

func (w *GatewayWorkflow) escalate(ctx context.Context, userID string, cb *domain.GatewayCallback, intent *domain.PaymentIntent, cause error) error {
	reason := reconciliationReason(cause)
	rc := w.recordCase(ctx, userID, cb, intent, reason, cause)

	slog.ErrorContext(ctx, "payment captured but order not recorded",
		"case_id", rc.ID, "user_id", userID, "gateway_order_id", rc.GatewayOrderID,
		"gateway_payment_id", rc.GatewayPaymentID, "reason", reason, "error", cause)

	return &domain.ReconciliationError{
		CaseID:         rc.ID,
		GatewayOrderID: rc.GatewayOrderID,
		Reason:         reason,
		Err:            cause,
	}
}

// recordCase durably stores a reconciliation case and counts it. A ledger failure is logged only.
func (w *GatewayWorkflow) recordCase(ctx context.Context, userID string, cb *domain.GatewayCallback, intent *domain.PaymentIntent, reason string, cause error) *domain.ReconciliationCase {
	rc := &domain.ReconciliationCase{
		ID:               uuid.NewString(),
		GatewayOrderID:   cb.GatewayOrderID,
		GatewayPaymentID: cb.GatewayPaymentID,
		UserID:           userID,
		Currency:         domain.DefaultCurrency,
		Reason:           reason,
		Detail:           cause.Error(),
		CreatedAt:        w.opts.Now(),
	}
	if intent != nil {
		rc.AmountMinor = intent.AmountMinor
		rc.Currency = intent.Currency
	}

	// the case must survive a client that hung up
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := w.ledger.RecordReconciliation(recCtx, rc); err != nil {
		slog.ErrorContext(ctx, "failed to record reconciliation case",
			"case_id", rc.ID, "gateway_order_id", rc.GatewayOrderID, "gateway_payment_id", rc.GatewayPaymentID,
			"amount_minor", rc.AmountMinor, "reason", reason, "error", err)
	}

	w.opts.Recorder.ReconciliationRecorded(reason)
	return rc
}

func reconciliationReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrPaymentExpired):
		return "expired"
	case errors.Is(err, errAmountMismatch):
		return "amount_mismatch"
	case errors.Is(err, domain.ErrPaymentNotFound):
		return "unknown_intent"
	case errors.Is(err, domain.ErrNotFound):
		return "catalog_missing"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence"
	default:
		return "unknown"
	}
}
