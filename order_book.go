package lob

import (
	"sync"
	"time"

	"github.com/cockroachdb/apd"
	"github.com/pkg/errors"
)

var (
	// ErrOrderNotFound is returned by cancellation when the target is not
	// resting: already filled, already cancelled or never seen.
	ErrOrderNotFound = errors.New("order not found")

	// ErrBookCorrupted signals an internal invariant violation. It aborts the
	// offending command and is never recovered from silently.
	ErrBookCorrupted = errors.New("order book corrupted")
)

// tracker remembers where a resting order lives, so cancellation finds its
// level without scanning the side.
type tracker struct {
	side  OrderSide
	price apd.Decimal
}

// Order book contains all resting orders for a market and matches incoming
// orders against them by price-time priority: better-priced levels first,
// arrival order within a level.
type OrderBook struct {
	Market string

	bids *bookSide
	asks *bookSide

	trackers    map[uint64]tracker
	nextTradeID uint64

	tradeBook *TradeBook      // records executed trades
	orderRepo OrderRepository // persistent order storage

	// mutex that ensures commands are sequential: at most one submit or
	// cancel mutates the book at a time, readers see a consistent book
	mu sync.RWMutex
}

// Create a new order book for a market.
func NewOrderBook(market string, tradeBook *TradeBook, orderRepo OrderRepository) *OrderBook {
	if orderRepo == nil {
		orderRepo = NOPOrderRepository
	}
	return &OrderBook{
		Market:    market,
		bids:      newBookSide(SideBuy),
		asks:      newBookSide(SideSell),
		trackers:  make(map[uint64]tracker),
		tradeBook: tradeBook,
		orderRepo: orderRepo,
	}
}

// TradeBook returns the book's trade record.
func (b *OrderBook) TradeBook() *TradeBook {
	return b.tradeBook
}

// Process matches an incoming order against the opposing side and rests any
// unmatched remainder at the tail of its own side's level. The returned
// events are in the exact order things happened: zero or more OrderTraded,
// then at most one OrderPlaced carrying the resting quantity. A fully filled
// order produces trades only.
func (b *OrderBook) Process(order Order) ([]Event, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.trackers[order.ID]; ok {
		return nil, errors.Wrapf(ErrInvalidOrder, "order %d already rests on the book", order.ID)
	}

	// the book mutates Remaining in place; detach it from caller storage
	order.Remaining = copyDecimal(&order.Remaining)

	opposing := b.asks
	if order.Side == SideSell {
		opposing = b.bids
	}

	var events []Event
	for order.Remaining.Sign() > 0 {
		level, ok := opposing.best()
		if !ok {
			break
		}
		if !crosses(&order, &level.price) {
			break
		}
		if level.empty() {
			return events, errors.Wrapf(ErrBookCorrupted, "empty %s level %s left indexed", opposing.side, level.price.String())
		}

		traded, err := b.fill(&order, level)
		events = append(events, traded...)
		if err != nil {
			return events, err
		}

		if level.empty() {
			opposing.delete(level.price)
		}
	}

	if order.Remaining.Sign() > 0 {
		if err := b.rest(order); err != nil {
			return events, err
		}
		events = append(events, PlacedEvent(order))
	}
	return events, nil
}

// crosses reports whether a resting price is marketable against the taker's
// limit: a bid matches asks at or below it, an ask matches bids at or above.
func crosses(taker *Order, restingPrice *apd.Decimal) bool {
	if taker.Side == SideBuy {
		return restingPrice.Cmp(&taker.Price) <= 0
	}
	return restingPrice.Cmp(&taker.Price) >= 0
}

// fill runs one execution pass of the taker against a level's queue,
// consuming makers oldest-first. Fully filled makers always form a
// contiguous prefix of the queue - a later maker cannot be exhausted while
// an earlier one still holds quantity - so removal is strictly pop-front. A
// partially filled head keeps its queue position with reduced quantity.
func (b *OrderBook) fill(taker *Order, level *priceLevel) ([]Event, error) {
	var events []Event
	for taker.Remaining.Sign() > 0 && !level.empty() {
		maker := level.front()

		var qty apd.Decimal
		qty.Set(minDecimal(&taker.Remaining, &maker.Remaining))

		if _, err := BaseContext.Sub(&taker.Remaining, &taker.Remaining, &qty); err != nil {
			return events, errors.Wrapf(err, "taker %d remaining", taker.ID)
		}
		if _, err := BaseContext.Sub(&maker.Remaining, &maker.Remaining, &qty); err != nil {
			return events, errors.Wrapf(err, "maker %d remaining", maker.ID)
		}
		if err := level.reduce(&qty); err != nil {
			return events, err
		}

		trade := Trade{
			ID:            b.nextTradeID,
			Market:        b.Market,
			MakerOrderID:  maker.ID,
			TakerOrderID:  taker.ID,
			MakerTraderID: maker.TraderID,
			TakerTraderID: taker.TraderID,
			Qty:           qty,
			Price:         maker.Price, // price improvement accrues to the taker
			Timestamp:     taker.Timestamp,
		}
		b.nextTradeID++

		if b.tradeBook != nil {
			if err := b.tradeBook.Enter(trade); err != nil {
				return events, err
			}
		}
		events = append(events, TradedEvent(trade))

		if maker.Remaining.IsZero() {
			level.popFront()
			delete(b.trackers, maker.ID)
		}
		if err := b.orderRepo.Save(*maker); err != nil {
			return events, errors.Wrapf(err, "save maker %d", maker.ID)
		}
	}
	return events, nil
}

// rest inserts the order's remainder at the tail of its side's level.
func (b *OrderBook) rest(order Order) error {
	own := b.bids
	if order.Side == SideSell {
		own = b.asks
	}
	o := order
	// later fills decrement the resting copy; keep it off the event's storage
	o.Remaining = copyDecimal(&order.Remaining)
	if err := own.upsert(o.Price).append(&o); err != nil {
		return err
	}
	b.trackers[order.ID] = tracker{side: order.Side, price: order.Price}
	return errors.Wrapf(b.orderRepo.Save(order), "save order %d", order.ID)
}

// Cancel removes a resting order. There are no partial semantics: the order
// is either fully cancelled with a single OrderCancelled event, or reported
// missing with no event and no state change. A cancel racing a fill is
// resolved purely by lock order; losing the race yields ErrOrderNotFound.
func (b *OrderBook) Cancel(orderID uint64) (Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tr, ok := b.trackers[orderID]
	if !ok {
		return Event{}, errors.Wrapf(ErrOrderNotFound, "order %d", orderID)
	}
	side := b.bids
	if tr.side == SideSell {
		side = b.asks
	}
	level, ok := side.level(tr.price)
	if !ok {
		return Event{}, errors.Wrapf(ErrBookCorrupted, "tracked order %d has no %s level at %s", orderID, tr.side, tr.price.String())
	}
	order, ok := level.remove(orderID)
	if !ok {
		return Event{}, errors.Wrapf(ErrBookCorrupted, "tracked order %d missing from its level", orderID)
	}
	if level.empty() {
		side.delete(tr.price)
	}
	delete(b.trackers, orderID)

	if err := b.orderRepo.Save(*order); err != nil {
		return Event{}, errors.Wrapf(err, "save order %d", orderID)
	}
	return CancelledEvent(orderID, time.Now()), nil
}

// BestBid returns the highest resting bid price, if any.
func (b *OrderBook) BestBid() (apd.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if lvl, ok := b.bids.best(); ok {
		return lvl.price, true
	}
	return apd.Decimal{}, false
}

// BestAsk returns the lowest resting ask price, if any.
func (b *OrderBook) BestAsk() (apd.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if lvl, ok := b.asks.best(); ok {
		return lvl.price, true
	}
	return apd.Decimal{}, false
}

// Depth aggregates remaining quantity per price level for both sides, best
// to worst, as a consistent point-in-time snapshot.
func (b *OrderBook) Depth() Depth {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Depth{Bids: b.bids.depth(), Asks: b.asks.depth()}
}

// Get all bids ordered the same way they are matched.
func (b *OrderBook) GetBids() []Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return collect(b.bids)
}

// Get all asks ordered the same way they are matched.
func (b *OrderBook) GetAsks() []Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return collect(b.asks)
}

func collect(side *bookSide) []Order {
	var orders []Order
	side.walk(func(lvl *priceLevel) bool {
		for _, o := range lvl.orders {
			c := *o
			c.Remaining = copyDecimal(&o.Remaining)
			orders = append(orders, c)
		}
		return true
	})
	return orders
}
