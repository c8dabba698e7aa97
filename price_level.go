package lob

import (
	"github.com/cockroachdb/apd"
	"github.com/pkg/errors"
)

// priceLevel is the FIFO queue of resting orders sharing one exact price on
// one side of the book. orders[0] is the earliest unfilled order at the
// price; fills always consume from the front.
type priceLevel struct {
	price  apd.Decimal
	orders []*Order
	volume apd.Decimal // sum of Remaining across the queue
}

func newPriceLevel(price apd.Decimal) *priceLevel {
	return &priceLevel{price: price}
}

func (l *priceLevel) empty() bool {
	return len(l.orders) == 0
}

func (l *priceLevel) len() int {
	return len(l.orders)
}

func (l *priceLevel) front() *Order {
	return l.orders[0]
}

// append adds an order at the tail of the queue, behind every earlier
// arrival at this price.
func (l *priceLevel) append(o *Order) error {
	if _, err := BaseContext.Add(&l.volume, &l.volume, &o.Remaining); err != nil {
		return errors.Wrapf(err, "level %s volume", l.price.String())
	}
	l.orders = append(l.orders, o)
	return nil
}

// popFront removes the oldest order. Its remaining quantity has already been
// consumed out of volume by reduce, so only the queue shrinks here.
func (l *priceLevel) popFront() *Order {
	o := l.orders[0]
	l.orders[0] = nil
	l.orders = l.orders[1:]
	return o
}

// reduce accounts a fill of qty against the level's aggregate volume.
func (l *priceLevel) reduce(qty *apd.Decimal) error {
	if _, err := BaseContext.Sub(&l.volume, &l.volume, qty); err != nil {
		return errors.Wrapf(err, "level %s volume", l.price.String())
	}
	if l.volume.Sign() < 0 {
		return errors.Wrapf(ErrBookCorrupted, "level %s volume went negative", l.price.String())
	}
	return nil
}

// remove erases a specific resting order, used by cancellation. Unlike
// fills it may unlink from the middle of the queue; peers keep their
// relative order.
func (l *priceLevel) remove(orderID uint64) (*Order, bool) {
	for i, o := range l.orders {
		if o.ID != orderID {
			continue
		}
		if _, err := BaseContext.Sub(&l.volume, &l.volume, &o.Remaining); err != nil {
			return nil, false
		}
		copy(l.orders[i:], l.orders[i+1:])
		l.orders[len(l.orders)-1] = nil
		l.orders = l.orders[:len(l.orders)-1]
		return o, true
	}
	return nil, false
}
