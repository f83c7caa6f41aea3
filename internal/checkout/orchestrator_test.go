package checkout_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"BookCart/internal/cart"
	"BookCart/internal/checkout"
	"BookCart/internal/orders"
)

type fakeSession struct {
	authed   bool
	identity string
}

func (f *fakeSession) IsAuthenticated() bool { return f.authed }

func (f *fakeSession) CurrentIdentity() (string, bool) {
	if !f.authed {
		return "", false
	}
	return f.identity, true
}

type fakeSubmitter struct {
	calls  atomic.Int32
	submit func(ctx context.Context, req orders.OrderRequest) (orders.Confirmation, error)
}

func (f *fakeSubmitter) Submit(ctx context.Context, req orders.OrderRequest) (orders.Confirmation, error) {
	f.calls.Add(1)
	return f.submit(ctx, req)
}

func newCheckedCart(t *testing.T) *cart.Store {
	t.Helper()

	s := cart.NewStore(cart.NewMemorySlot(), zap.NewNop())
	s.Add(cart.ItemCandidate{ID: "B1", Title: "Dune", UnitPriceCents: 1250})
	s.Add(cart.ItemCandidate{ID: "B1", Title: "Dune", UnitPriceCents: 1250})
	return s
}

func TestCheckout_UnauthenticatedLeavesCartAndSkipsNetwork(t *testing.T) {
	store := newCheckedCart(t)
	sub := &fakeSubmitter{submit: func(context.Context, orders.OrderRequest) (orders.Confirmation, error) {
		return orders.Confirmation{}, nil
	}}

	o := &checkout.Orchestrator{
		Cart:    store,
		Session: &fakeSession{authed: false},
		Orders:  sub,
		Log:     zap.NewNop(),
	}

	out := o.Checkout(context.Background())
	if out.Status != checkout.StatusUnauthenticated {
		t.Fatalf("status=%s, want %s", out.Status, checkout.StatusUnauthenticated)
	}
	if sub.calls.Load() != 0 {
		t.Fatalf("submitter called %d times, want 0", sub.calls.Load())
	}
	if snap := store.Snapshot(); len(snap.Items) != 1 || snap.Items[0].Quantity != 2 {
		t.Fatalf("cart changed: %+v", snap.Items)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	store := cart.NewStore(cart.NewMemorySlot(), zap.NewNop())
	sub := &fakeSubmitter{submit: func(context.Context, orders.OrderRequest) (orders.Confirmation, error) {
		return orders.Confirmation{}, nil
	}}

	o := &checkout.Orchestrator{
		Cart:    store,
		Session: &fakeSession{authed: true, identity: "Paul Atreides"},
		Orders:  sub,
		Log:     zap.NewNop(),
	}

	if out := o.Checkout(context.Background()); out.Status != checkout.StatusEmptyCart {
		t.Fatalf("status=%s, want %s", out.Status, checkout.StatusEmptyCart)
	}
	if sub.calls.Load() != 0 {
		t.Fatalf("submitter called %d times, want 0", sub.calls.Load())
	}
}

func TestCheckout_SuccessClearsCartAndReportsPreviousTotal(t *testing.T) {
	store := newCheckedCart(t)

	var got orders.OrderRequest
	sub := &fakeSubmitter{submit: func(_ context.Context, req orders.OrderRequest) (orders.Confirmation, error) {
		got = req
		return orders.Confirmation{OrderID: "o_1"}, nil
	}}

	o := &checkout.Orchestrator{
		Cart:    store,
		Session: &fakeSession{authed: true, identity: "Paul Atreides"},
		Orders:  sub,
		Log:     zap.NewNop(),
	}

	out := o.Checkout(context.Background())
	if out.Status != checkout.StatusSucceeded {
		t.Fatalf("status=%s, want %s", out.Status, checkout.StatusSucceeded)
	}
	if out.PreviousTotalCents != 2500 {
		t.Fatalf("previous total=%d, want 2500", out.PreviousTotalCents)
	}
	if n := len(store.Snapshot().Items); n != 0 {
		t.Fatalf("cart items after success=%d, want 0", n)
	}

	if got.RequesterIdentity != "Paul Atreides" {
		t.Fatalf("requester=%q", got.RequesterIdentity)
	}
	if len(got.LineItems) != 1 {
		t.Fatalf("line items=%d, want 1", len(got.LineItems))
	}
	line := got.LineItems[0]
	if line.CatalogItemID != "B1" || line.Quantity != 2 || line.UnitPriceCents != 1250 {
		t.Fatalf("unexpected line: %+v", line)
	}
}

func TestCheckout_FailureKeepsCartForRetry(t *testing.T) {
	store := newCheckedCart(t)
	before := store.Snapshot()

	sub := &fakeSubmitter{submit: func(context.Context, orders.OrderRequest) (orders.Confirmation, error) {
		return orders.Confirmation{}, errors.New("boom")
	}}

	o := &checkout.Orchestrator{
		Cart:    store,
		Session: &fakeSession{authed: true, identity: "Paul Atreides"},
		Orders:  sub,
		Log:     zap.NewNop(),
	}

	out := o.Checkout(context.Background())
	if out.Status != checkout.StatusSubmissionFailed {
		t.Fatalf("status=%s, want %s", out.Status, checkout.StatusSubmissionFailed)
	}
	if !strings.Contains(out.Cause, "boom") {
		t.Fatalf("cause=%q, want it to carry the error", out.Cause)
	}

	after := store.Snapshot()
	if len(after.Items) != len(before.Items) || after.TotalCents != before.TotalCents {
		t.Fatalf("cart changed on failure: before=%+v after=%+v", before, after)
	}
	for i := range before.Items {
		if before.Items[i] != after.Items[i] {
			t.Fatalf("item %d changed: %+v vs %+v", i, before.Items[i], after.Items[i])
		}
	}

	// The same call is retryable and succeeds once the service recovers.
	sub.submit = func(context.Context, orders.OrderRequest) (orders.Confirmation, error) {
		return orders.Confirmation{OrderID: "o_2"}, nil
	}
	if out := o.Checkout(context.Background()); out.Status != checkout.StatusSucceeded {
		t.Fatalf("retry status=%s, want %s", out.Status, checkout.StatusSucceeded)
	}
}

func TestCheckout_NoDoubleSubmitWhileOutstanding(t *testing.T) {
	store := newCheckedCart(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	sub := &fakeSubmitter{submit: func(context.Context, orders.OrderRequest) (orders.Confirmation, error) {
		close(entered)
		<-release
		return orders.Confirmation{OrderID: "o_3"}, nil
	}}

	o := &checkout.Orchestrator{
		Cart:    store,
		Session: &fakeSession{authed: true, identity: "Paul Atreides"},
		Orders:  sub,
		Log:     zap.NewNop(),
	}

	first := make(chan checkout.Outcome, 1)
	go func() { first <- o.Checkout(context.Background()) }()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first checkout never reached the submitter")
	}

	if !o.InProgress() {
		t.Fatal("InProgress=false while submission outstanding")
	}

	second := o.Checkout(context.Background())
	if second.Status != checkout.StatusSubmissionFailed {
		t.Fatalf("second status=%s, want %s", second.Status, checkout.StatusSubmissionFailed)
	}
	if sub.calls.Load() != 1 {
		t.Fatalf("submitter calls=%d, want 1", sub.calls.Load())
	}

	close(release)
	if out := <-first; out.Status != checkout.StatusSucceeded {
		t.Fatalf("first status=%s, want %s", out.Status, checkout.StatusSucceeded)
	}
	if o.InProgress() {
		t.Fatal("InProgress=true after completion")
	}
}
