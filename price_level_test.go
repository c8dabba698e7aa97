package lob

import (
	"testing"
)

func restingOrder(t *testing.T, id uint64, qty, price string) *Order {
	t.Helper()
	o := limitOrder(t, id, traderA, SideSell, qty, price)
	return &o
}

func TestPriceLevel_FIFO(t *testing.T) {
	lvl := newPriceLevel(dec(t, "100"))

	for id := uint64(1); id <= 3; id++ {
		if err := lvl.append(restingOrder(t, id, "5", "100")); err != nil {
			t.Fatal(err)
		}
	}
	if lvl.len() != 3 {
		t.Fatalf("expected 3 orders, got %d", lvl.len())
	}
	eqDec(t, lvl.volume, "15")

	for id := uint64(1); id <= 3; id++ {
		if got := lvl.front().ID; got != id {
			t.Fatalf("expected order %d at the front, got %d", id, got)
		}
		lvl.popFront()
	}
	if !lvl.empty() {
		t.Error("expected an empty level")
	}
}

func TestPriceLevel_ReduceTracksVolume(t *testing.T) {
	lvl := newPriceLevel(dec(t, "100"))
	if err := lvl.append(restingOrder(t, 1, "10", "100")); err != nil {
		t.Fatal(err)
	}

	qty := dec(t, "4")
	if err := lvl.reduce(&qty); err != nil {
		t.Fatal(err)
	}
	eqDec(t, lvl.volume, "6")
}

func TestPriceLevel_RemoveMiddlePreservesOrder(t *testing.T) {
	lvl := newPriceLevel(dec(t, "100"))
	for id := uint64(1); id <= 3; id++ {
		if err := lvl.append(restingOrder(t, id, "5", "100")); err != nil {
			t.Fatal(err)
		}
	}

	if _, ok := lvl.remove(2); !ok {
		t.Fatal("expected removal of order 2")
	}
	eqDec(t, lvl.volume, "10")
	if lvl.orders[0].ID != 1 || lvl.orders[1].ID != 3 {
		t.Errorf("peers re-ordered after removal: %d, %d", lvl.orders[0].ID, lvl.orders[1].ID)
	}

	if _, ok := lvl.remove(42); ok {
		t.Error("expected removal of an unknown order to fail")
	}
}
