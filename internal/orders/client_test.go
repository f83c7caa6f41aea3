package orders_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"BookCart/internal/orders"
)

func sampleRequest() orders.OrderRequest {
	return orders.OrderRequest{
		RequesterIdentity: "Paul Atreides",
		LineItems: []orders.OrderLine{
			{CatalogItemID: "B1", Quantity: 2, UnitPriceCents: 1250},
		},
	}
}

func TestClient_SubmitSuccess(t *testing.T) {
	var got orders.OrderRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected call: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("missing X-Request-Id")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"order_id": "o_42"})
	}))
	t.Cleanup(ts.Close)

	c := orders.NewClient(ts.URL)
	conf, err := c.Submit(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if conf.OrderID != "o_42" {
		t.Fatalf("order id=%q, want o_42", conf.OrderID)
	}
	if got.RequesterIdentity != "Paul Atreides" || len(got.LineItems) != 1 {
		t.Fatalf("payload not delivered: %+v", got)
	}
}

func TestClient_SubmitRejectedCarriesServerMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid catalog item"}`))
	}))
	t.Cleanup(ts.Close)

	c := orders.NewClient(ts.URL)
	_, err := c.Submit(context.Background(), sampleRequest())
	if !errors.Is(err, orders.ErrRejected) {
		t.Fatalf("err=%v, want ErrRejected", err)
	}
	if !strings.Contains(err.Error(), "invalid catalog item") {
		t.Fatalf("err=%v, want server message", err)
	}
}

func TestClient_SubmitServerErrorIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	c := orders.NewClient(ts.URL)
	if _, err := c.Submit(context.Background(), sampleRequest()); !errors.Is(err, orders.ErrUnavailable) {
		t.Fatalf("err=%v, want ErrUnavailable", err)
	}
}

func TestClient_SubmitConnectionFailureIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := orders.NewClient(url)
	if _, err := c.Submit(context.Background(), sampleRequest()); !errors.Is(err, orders.ErrUnavailable) {
		t.Fatalf("err=%v, want ErrUnavailable", err)
	}
}
