package cart

import "context"

// LineItem is one cart entry: a catalog item at the unit price the shopper
// saw when adding it. The price is frozen for the lifetime of the entry and
// never re-read from the catalog.
type LineItem struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
}

// ItemCandidate is what a caller hands to Add. Quantity is owned by the
// store, not the caller.
type ItemCandidate struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// Snapshot is a stable point-in-time view of the cart. Items are in
// insertion order and the total is always Σ(unit price × quantity).
type Snapshot struct {
	Items      []LineItem `json:"items"`
	TotalCents int64      `json:"total_cents"`
}

// Persistence is the durable slot holding the serialized cart under one
// well-known key. Save overwrites the whole snapshot; Load reports
// found=false when the slot is empty.
type Persistence interface {
	Load(ctx context.Context) (items []LineItem, found bool, err error)
	Save(ctx context.Context, items []LineItem) error
	Ping(ctx context.Context) error
}
