package checkout

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"BookCart/internal/cart"
	"BookCart/internal/orders"
	"BookCart/internal/session"
)

// Status is the terminal result kind of one checkout invocation.
type Status string

const (
	StatusSucceeded        Status = "succeeded"
	StatusUnauthenticated  Status = "unauthenticated"
	StatusEmptyCart        Status = "empty_cart"
	StatusSubmissionFailed Status = "submission_failed"
)

// Outcome is what every checkout invocation resolves to. PreviousTotalCents
// is set on success only (the cart is already empty by then); Cause is set
// on submission failure only.
type Outcome struct {
	Status             Status
	PreviousTotalCents int64
	Cause              string
}

// CartStore is the slice of the cart store the orchestrator needs.
type CartStore interface {
	Snapshot() cart.Snapshot
	Clear()
}

// Orchestrator drives the one-shot transition from "cart has items" to
// "order submitted, cart emptied". The cart is cleared strictly after the
// order service confirms, never before; any submission failure leaves the
// cart exactly as it was so the caller can retry.
type Orchestrator struct {
	Cart    CartStore
	Session session.Session
	Orders  orders.Submitter
	Log     *zap.Logger

	busy atomic.Bool
}

// InProgress reports whether a checkout invocation is outstanding. Callers
// use it to disable re-submission during network latency.
func (o *Orchestrator) InProgress() bool {
	return o.busy.Load()
}

// Checkout validates, submits the current cart as an order exactly once,
// and clears the cart on confirmed success. It never retries on its own:
// order creation is not idempotent, so retry stays an explicit caller
// decision.
func (o *Orchestrator) Checkout(ctx context.Context) Outcome {
	if !o.busy.CompareAndSwap(false, true) {
		return Outcome{Status: StatusSubmissionFailed, Cause: "checkout already in progress"}
	}
	defer o.busy.Store(false)

	if !o.Session.IsAuthenticated() {
		return Outcome{Status: StatusUnauthenticated}
	}
	identity, ok := o.Session.CurrentIdentity()
	if !ok {
		return Outcome{Status: StatusUnauthenticated}
	}

	snap := o.Cart.Snapshot()
	if len(snap.Items) == 0 {
		return Outcome{Status: StatusEmptyCart}
	}

	req := orders.OrderRequest{
		RequesterIdentity: identity,
		LineItems:         make([]orders.OrderLine, 0, len(snap.Items)),
	}
	for _, it := range snap.Items {
		req.LineItems = append(req.LineItems, orders.OrderLine{
			CatalogItemID:  it.ID,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}

	conf, err := o.Orders.Submit(ctx, req)
	if err != nil {
		if o.Log != nil {
			o.Log.Warn("order submission failed, cart kept",
				zap.Error(err),
				zap.Int("items", len(snap.Items)),
				zap.Int64("total_cents", snap.TotalCents),
			)
		}
		return Outcome{Status: StatusSubmissionFailed, Cause: err.Error()}
	}

	o.Cart.Clear()

	if o.Log != nil {
		o.Log.Info("order submitted",
			zap.String("order_id", conf.OrderID),
			zap.Int64("total_cents", snap.TotalCents),
		)
	}
	return Outcome{Status: StatusSucceeded, PreviousTotalCents: snap.TotalCents}
}
