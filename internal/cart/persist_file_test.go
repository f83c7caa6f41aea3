package cart_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"BookCart/internal/cart"
)

func TestFileSlot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	slot := cart.NewFileSlot(path)

	items := []cart.LineItem{
		{ID: "B1", Title: "Dune", UnitPriceCents: 1250, Quantity: 2},
		{ID: "B2", Title: "Solaris", UnitPriceCents: 900, Quantity: 1},
	}
	if err := slot.Save(context.Background(), items); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, found, err := slot.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatal("found=false after save")
	}
	if len(got) != len(items) {
		t.Fatalf("items=%d, want %d", len(got), len(items))
	}
	for i := range items {
		if got[i] != items[i] {
			t.Fatalf("item %d: %+v, want %+v", i, got[i], items[i])
		}
	}
}

func TestFileSlot_MissingFileIsNotFound(t *testing.T) {
	slot := cart.NewFileSlot(filepath.Join(t.TempDir(), "absent.json"))

	_, found, err := slot.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatal("found=true for missing file")
	}
}

func TestFileSlot_CorruptFileDegradesToEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	slot := cart.NewFileSlot(path)
	if _, _, err := slot.Load(context.Background()); err == nil {
		t.Fatal("want load error for corrupt file")
	}

	// The store must swallow the corruption and start empty.
	s := cart.NewStore(slot, zap.NewNop())
	if snap := s.Snapshot(); len(snap.Items) != 0 || snap.TotalCents != 0 {
		t.Fatalf("want empty cart, got %+v", snap)
	}
}

func TestFileSlot_SaveOverwritesWholeSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	slot := cart.NewFileSlot(path)

	ctx := context.Background()
	if err := slot.Save(ctx, []cart.LineItem{{ID: "B1", Quantity: 1}}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := slot.Save(ctx, []cart.LineItem{{ID: "B2", Quantity: 3}}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, _, err := slot.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "B2" {
		t.Fatalf("slot not fully overwritten: %+v", got)
	}
}
