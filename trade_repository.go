package lob

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

var ErrTradeNotFound = errors.New("trade not found")

// TradeRepository persists executed trades. Trade IDs are unique per book,
// not globally, so lookups are scoped by market.
type TradeRepository interface {
	Store(trade Trade) error
	GetByID(market string, id uint64) (Trade, error)
}

var NOPTradeRepository TradeRepository = &nopTradeRepository{}

type nopTradeRepository struct {
}

func (n *nopTradeRepository) Store(trade Trade) error {
	return nil
}

func (n *nopTradeRepository) GetByID(market string, id uint64) (Trade, error) {
	return Trade{}, nil
}

// InMemoryTradeRepository keeps stored trades in a map.
type InMemoryTradeRepository struct {
	mu     sync.RWMutex
	trades map[string]Trade
}

func NewInMemoryTradeRepository() *InMemoryTradeRepository {
	return &InMemoryTradeRepository{trades: make(map[string]Trade)}
}

func tradeKey(market string, id uint64) string {
	return fmt.Sprintf("%s/%d", market, id)
}

func (r *InMemoryTradeRepository) Store(trade Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades[tradeKey(trade.Market, trade.ID)] = trade
	return nil
}

func (r *InMemoryTradeRepository) GetByID(market string, id uint64) (Trade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	trade, ok := r.trades[tradeKey(market, id)]
	if !ok {
		return Trade{}, errors.Wrapf(ErrTradeNotFound, "repository has no trade %s/%d", market, id)
	}
	return trade, nil
}
