package lob

import (
	"github.com/cockroachdb/apd"
	"github.com/igrmk/treemap/v2"
)

// DepthLevel is one price level's aggregate remaining quantity.
type DepthLevel struct {
	Price apd.Decimal
	Qty   apd.Decimal
}

// Depth is a point-in-time view of resting liquidity, best to worst on both
// sides.
type Depth struct {
	Bids []DepthLevel
	Asks []DepthLevel
}

// bookSide holds one side's price levels in an ordered map: bids descending,
// asks ascending, so iteration always starts at the top of the book. The two
// sides get distinct comparators instead of a single toggled one.
type bookSide struct {
	side   OrderSide
	levels *treemap.TreeMap[apd.Decimal, *priceLevel]
}

func newBookSide(side OrderSide) *bookSide {
	less := func(a, b apd.Decimal) bool { return a.Cmp(&b) < 0 }
	if side == SideBuy {
		less = func(a, b apd.Decimal) bool { return a.Cmp(&b) > 0 }
	}
	return &bookSide{
		side:   side,
		levels: treemap.NewWithKeyCompare[apd.Decimal, *priceLevel](less),
	}
}

// best returns the top-of-book level: highest bid or lowest ask.
func (s *bookSide) best() (*priceLevel, bool) {
	it := s.levels.Iterator()
	if !it.Valid() {
		return nil, false
	}
	return it.Value(), true
}

func (s *bookSide) level(price apd.Decimal) (*priceLevel, bool) {
	return s.levels.Get(price)
}

// upsert returns the level for a price, creating it if absent.
func (s *bookSide) upsert(price apd.Decimal) *priceLevel {
	if lvl, ok := s.levels.Get(price); ok {
		return lvl
	}
	lvl := newPriceLevel(price)
	s.levels.Set(price, lvl)
	return lvl
}

func (s *bookSide) delete(price apd.Decimal) {
	s.levels.Del(price)
}

func (s *bookSide) len() int {
	return s.levels.Len()
}

// walk visits levels best to worst until fn returns false.
func (s *bookSide) walk(fn func(lvl *priceLevel) bool) {
	for it := s.levels.Iterator(); it.Valid(); it.Next() {
		if !fn(it.Value()) {
			return
		}
	}
}

func (s *bookSide) depth() []DepthLevel {
	out := make([]DepthLevel, 0, s.levels.Len())
	s.walk(func(lvl *priceLevel) bool {
		// detach the aggregate: the level keeps mutating its own copy
		out = append(out, DepthLevel{Price: lvl.price, Qty: copyDecimal(&lvl.volume)})
		return true
	})
	return out
}
