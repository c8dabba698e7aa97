package lob

import (
	"sync"

	"github.com/pkg/errors"
)

// TradeBook records every trade executed on a market, in execution order.
type TradeBook struct {
	Market string

	trades     []Trade
	tradeMutex sync.RWMutex

	repo TradeRepository
}

func NewTradeBook(market string, repo TradeRepository) *TradeBook {
	if repo == nil {
		repo = NOPTradeRepository
	}
	return &TradeBook{
		Market: market,
		trades: make([]Trade, 0, 1024),
		repo:   repo,
	}
}

func (t *TradeBook) Enter(trade Trade) error {
	t.tradeMutex.Lock()
	defer t.tradeMutex.Unlock()

	if err := t.repo.Store(trade); err != nil {
		return errors.Wrapf(err, "store trade %d", trade.ID)
	}
	t.trades = append(t.trades, trade)
	return nil
}

func (t *TradeBook) Len() int {
	t.tradeMutex.RLock()
	defer t.tradeMutex.RUnlock()
	return len(t.trades)
}

// Trades returns a copy of all recorded trades.
func (t *TradeBook) Trades() []Trade {
	t.tradeMutex.RLock()
	defer t.tradeMutex.RUnlock()

	tradesCopy := make([]Trade, len(t.trades))
	copy(tradesCopy, t.trades)
	return tradesCopy
}
