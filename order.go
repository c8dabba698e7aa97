package lob

import (
	"time"

	"github.com/cockroachdb/apd"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrInvalidOrder is returned for orders that can never enter the book:
// non-positive price or quantity, an unsupported type or a missing market.
// Such orders are rejected before any state is touched.
var ErrInvalidOrder = errors.New("invalid order")

type OrderSide int

const (
	SideBuy OrderSide = iota
	SideSell
)

func (s OrderSide) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	}
	return "unknown"
}

// Opposite returns the side an incoming order matches against.
func (s OrderSide) Opposite() OrderSide {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType is a closed set so that market and stop orders can be added later
// without changing the matching loop. Only limit orders are accepted today.
type OrderType int

const (
	TypeLimit OrderType = iota
)

func (t OrderType) String() string {
	if t == TypeLimit {
		return "limit"
	}
	return "unknown"
}

// Order is a request to buy or sell a quantity of a market at a limit price.
// Remaining starts at the full quantity and is only ever decremented by
// fills; an order whose Remaining hits zero leaves the book immediately.
type Order struct {
	ID        uint64 // caller-assigned, globally unique
	TraderID  uuid.UUID
	Market    string
	Side      OrderSide
	Type      OrderType
	Price     apd.Decimal
	Remaining apd.Decimal
	Timestamp time.Time
}

// Create a new order, validating it first.
func NewOrder(id uint64, traderID uuid.UUID, market string, side OrderSide, orderType OrderType, price, qty apd.Decimal, timestamp time.Time) (Order, error) {
	o := Order{
		ID:        id,
		TraderID:  traderID,
		Market:    market,
		Side:      side,
		Type:      orderType,
		Price:     price,
		Remaining: qty,
		Timestamp: timestamp,
	}
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Validate checks the order before it is allowed anywhere near a book.
func (o *Order) Validate() error {
	if o.Market == "" {
		return errors.Wrap(ErrInvalidOrder, "market must be set")
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return errors.Wrapf(ErrInvalidOrder, "unknown side %d", o.Side)
	}
	if o.Type != TypeLimit {
		return errors.Wrapf(ErrInvalidOrder, "unsupported order type %d", o.Type)
	}
	if o.Price.Sign() <= 0 {
		return errors.Wrapf(ErrInvalidOrder, "price %s must be positive", o.Price.String())
	}
	if o.Remaining.Sign() <= 0 {
		return errors.Wrapf(ErrInvalidOrder, "quantity %s must be positive", o.Remaining.String())
	}
	return nil
}

func (o *Order) IsBid() bool {
	return o.Side == SideBuy
}
