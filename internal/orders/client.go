package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderLine is one cart item reduced to what the order service needs.
type OrderLine struct {
	CatalogItemID  string `json:"catalog_item_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// OrderRequest is the outbound checkout payload. It lives for a single
// submission and is never stored.
type OrderRequest struct {
	RequesterIdentity string      `json:"requester_identity"`
	LineItems         []OrderLine `json:"line_items"`
}

// Confirmation carries the order id the service assigned. Callers here do
// not depend on it.
type Confirmation struct {
	OrderID string `json:"order_id"`
}

// Submitter accepts an order exactly once and either confirms or fails.
type Submitter interface {
	Submit(ctx context.Context, req OrderRequest) (Confirmation, error)
}

var (
	ErrRejected    = errors.New("order rejected")
	ErrUnavailable = errors.New("order service unavailable")
)

type Client struct {
	BaseURL string
	Client  *http.Client
}

func NewClient(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 3 * time.Second},
	}
}

func (c *Client) Submit(ctx context.Context, order OrderRequest) (Confirmation, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return Confirmation{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return Confirmation{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Confirmation{}, fmt.Errorf("%w: timeout", ErrUnavailable)
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return Confirmation{}, fmt.Errorf("%w: timeout", ErrUnavailable)
		}
		return Confirmation{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var conf Confirmation
		// The assigned order id is informational; a body we cannot decode
		// does not turn a confirmed order into a failure.
		_ = json.NewDecoder(resp.Body).Decode(&conf)
		return conf, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return Confirmation{}, fmt.Errorf("%w: %s", ErrRejected, errorMessage(resp.Body, resp.StatusCode))
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Confirmation{}, fmt.Errorf("%w: status=%d", ErrUnavailable, resp.StatusCode)
	}
}

func errorMessage(body io.Reader, status int) string {
	var er struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&er); err == nil && er.Error != "" {
		return er.Error
	}
	return fmt.Sprintf("status=%d", status)
}
