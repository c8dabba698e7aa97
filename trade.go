package lob

import (
	"time"

	"github.com/cockroachdb/apd"
	"github.com/google/uuid"
)

// Trade represents two opposed matched orders. The maker is the resting
// order, the taker the incoming one; the trade executes at the maker's
// resting price and carries the taker's timestamp.
type Trade struct {
	ID     uint64 // unique for the lifetime of the book
	Market string

	MakerOrderID uint64
	TakerOrderID uint64

	MakerTraderID uuid.UUID
	TakerTraderID uuid.UUID

	Qty       apd.Decimal
	Price     apd.Decimal
	Timestamp time.Time
}
