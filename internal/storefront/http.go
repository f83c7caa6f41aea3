package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"BookCart/internal/cart"
	"BookCart/internal/checkout"
	"BookCart/internal/session"
	"BookCart/pkg/kit"
)

const maxBodyBytes = 1 << 20

// Server glues the cart store, the checkout orchestrator and the session
// slot to the HTTP surface the UI drives.
type Server struct {
	Cart     *cart.Store
	Checkout *checkout.Orchestrator
	Session  *session.TokenSession
	Log      *zap.Logger
	Outcomes func(outcome string)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Cart.Snapshot())
}

type addReq struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addReq
	if err := decodeStrict(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "id required", nil)
		return
	}
	if req.UnitPriceCents < 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "negative price", nil)
		return
	}

	s.Cart.Add(cart.ItemCandidate{
		ID:             req.ID,
		Title:          req.Title,
		UnitPriceCents: req.UnitPriceCents,
	})
	kit.WriteJSON(w, http.StatusOK, s.Cart.Snapshot())
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

func (s *Server) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityReq
	if err := decodeStrict(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	s.Cart.SetQuantity(chi.URLParam(r, "id"), req.Quantity)
	kit.WriteJSON(w, http.StatusOK, s.Cart.Snapshot())
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	s.Cart.Remove(chi.URLParam(r, "id"))
	kit.WriteJSON(w, http.StatusOK, s.Cart.Snapshot())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.Cart.Clear()
	kit.WriteJSON(w, http.StatusOK, s.Cart.Snapshot())
}

type checkoutResp struct {
	Status     string `json:"status"`
	TotalCents int64  `json:"total_cents,omitempty"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	out := s.Checkout.Checkout(r.Context())
	if s.Outcomes != nil {
		s.Outcomes(string(out.Status))
	}

	switch out.Status {
	case checkout.StatusSucceeded:
		kit.WriteJSON(w, http.StatusOK, checkoutResp{
			Status:     string(out.Status),
			TotalCents: out.PreviousTotalCents,
		})
	case checkout.StatusUnauthenticated:
		kit.WriteError(w, r, http.StatusUnauthorized, "sign-in required", nil)
	case checkout.StatusEmptyCart:
		kit.WriteError(w, r, http.StatusConflict, "cart is empty", nil)
	default:
		kit.WriteError(w, r, http.StatusBadGateway, "order submission failed",
			map[string]any{"cause": out.Cause})
	}
}

type signInReq struct {
	Token string `json:"token"`
}

// handleSignIn installs the token the identity service issued, the hand-off
// the original client did by writing the token to its durable slot.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInReq
	if err := decodeStrict(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "token required", nil)
		return
	}

	s.Session.SetToken(req.Token)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSignOut(w http.ResponseWriter, _ *http.Request) {
	s.Session.ClearToken()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Cart.Ping(ctx); err != nil {
		if s.Log != nil {
			s.Log.Warn("readyz failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func decodeStrict(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}
