package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Store is the single-writer cart state container. All mutation goes through
// its methods: each one updates the in-memory items, recomputes the total,
// issues the durable write and then notifies subscribers, in that order.
// A failed durable write is logged and swallowed; the in-memory state stays
// authoritative for the rest of the session.
type Store struct {
	mu    sync.RWMutex
	items []LineItem
	total int64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	slot Persistence
	log  *zap.Logger
}

// NewStore hydrates a store from the durable slot. A missing or unreadable
// snapshot degrades to an empty cart, never to an error.
func NewStore(slot Persistence, log *zap.Logger) *Store {
	s := &Store{
		subs: make(map[int]func(Snapshot)),
		slot: slot,
		log:  log,
	}

	items, found, err := slot.Load(context.Background())
	if err != nil {
		log.Warn("cart snapshot unreadable, starting empty", zap.Error(err))
		return s
	}
	if found {
		s.items = sanitize(items)
		s.total = sum(s.items)
	}
	return s
}

// sanitize drops entries a well-formed snapshot could not contain, so a
// hand-edited or stale slot cannot break the store's invariants.
func sanitize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.ID == "" || it.Quantity < 1 || it.UnitPriceCents < 0 {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

func sum(items []LineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.UnitPriceCents * int64(it.Quantity)
	}
	return total
}

// Add merges the candidate into the cart: an existing line item has its
// quantity incremented by one and keeps its original title and price, an
// unknown item is appended with quantity 1.
func (s *Store) Add(c ItemCandidate) {
	s.mutate(func() {
		for i := range s.items {
			if s.items[i].ID == c.ID {
				s.items[i].Quantity++
				return
			}
		}
		s.items = append(s.items, LineItem{
			ID:             c.ID,
			Title:          c.Title,
			UnitPriceCents: c.UnitPriceCents,
			Quantity:       1,
		})
	})
}

// Remove deletes the line item with the given id. Unknown ids are a no-op.
func (s *Store) Remove(id string) {
	s.mutate(func() {
		s.deleteLocked(id)
	})
}

// SetQuantity sets an existing item's quantity. A quantity of zero or less
// removes the item. Unknown ids are a no-op.
func (s *Store) SetQuantity(id string, quantity int) {
	s.mutate(func() {
		if quantity <= 0 {
			s.deleteLocked(id)
			return
		}
		for i := range s.items {
			if s.items[i].ID == id {
				s.items[i].Quantity = quantity
				return
			}
		}
	})
}

// Clear empties the cart unconditionally.
func (s *Store) Clear() {
	s.mutate(func() {
		s.items = nil
	})
}

// Snapshot returns a copy of the current items and total. Callers may hold
// on to it; later mutations are never observed through it.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers a callback invoked with the new snapshot after every
// completed mutation. The returned func cancels the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Ping reports whether the durable slot is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.slot.Ping(ctx)
}

func (s *Store) mutate(apply func()) {
	s.mu.Lock()
	apply()
	s.total = sum(s.items)

	if err := s.slot.Save(context.Background(), append([]LineItem(nil), s.items...)); err != nil {
		s.log.Warn("cart snapshot save failed, in-memory state kept", zap.Error(err))
	}

	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Store) deleteLocked(id string) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Items:      append([]LineItem(nil), s.items...),
		TotalCents: s.total,
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
