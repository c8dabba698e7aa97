package lob

import (
	"time"

	"github.com/cockroachdb/apd"
	"github.com/google/uuid"
)

type EventKind int

const (
	EventOrderPlaced EventKind = iota
	EventOrderTraded
	EventOrderCancelled
)

func (k EventKind) String() string {
	switch k {
	case EventOrderPlaced:
		return "order_placed"
	case EventOrderTraded:
		return "order_traded"
	case EventOrderCancelled:
		return "order_cancelled"
	}
	return "unknown"
}

// OrderPlaced reports the part of an order that rested on the book. Qty is
// the remaining quantity after matching, not the original one.
type OrderPlaced struct {
	OrderID   uint64
	TraderID  uuid.UUID
	Market    string
	Side      OrderSide
	Type      OrderType
	Price     apd.Decimal
	Qty       apd.Decimal
	Timestamp time.Time
}

type OrderCancelled struct {
	OrderID   uint64
	Timestamp time.Time
}

// Event is a tagged union over the three order lifecycle notifications.
// Exactly the payload matching Kind is non-nil.
type Event struct {
	Kind      EventKind
	Placed    *OrderPlaced
	Trade     *Trade
	Cancelled *OrderCancelled
}

func PlacedEvent(o Order) Event {
	return Event{
		Kind: EventOrderPlaced,
		Placed: &OrderPlaced{
			OrderID:   o.ID,
			TraderID:  o.TraderID,
			Market:    o.Market,
			Side:      o.Side,
			Type:      o.Type,
			Price:     o.Price,
			Qty:       o.Remaining,
			Timestamp: o.Timestamp,
		},
	}
}

func TradedEvent(t Trade) Event {
	return Event{Kind: EventOrderTraded, Trade: &t}
}

func CancelledEvent(orderID uint64, timestamp time.Time) Event {
	return Event{
		Kind:      EventOrderCancelled,
		Cancelled: &OrderCancelled{OrderID: orderID, Timestamp: timestamp},
	}
}
