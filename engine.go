package lob

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrMarketExists   = errors.New("market already exists")
	ErrMarketNotFound = errors.New("market not found")
)

// Engine routes commands to per-market order books. Books carry independent
// locks, so commands for distinct markets run fully in parallel while each
// book stays sequential.
type Engine struct {
	mu       sync.RWMutex
	books    map[string]*OrderBook
	handlers []EventHandler

	orderRepo OrderRepository
	tradeRepo TradeRepository
}

// Create a new engine. Nil repositories default to the no-op ones.
func NewEngine(orderRepo OrderRepository, tradeRepo TradeRepository) *Engine {
	if orderRepo == nil {
		orderRepo = NOPOrderRepository
	}
	if tradeRepo == nil {
		tradeRepo = NOPTradeRepository
	}
	return &Engine{
		books:     make(map[string]*OrderBook),
		orderRepo: orderRepo,
		tradeRepo: tradeRepo,
	}
}

// CreateMarket opens an order book for a market.
func (e *Engine) CreateMarket(market string) (*OrderBook, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.books[market]; ok {
		return nil, errors.Wrap(ErrMarketExists, market)
	}
	book := NewOrderBook(market, NewTradeBook(market, e.tradeRepo), e.orderRepo)
	e.books[market] = book
	return book, nil
}

// Book returns the order book for a market.
func (e *Engine) Book(market string) (*OrderBook, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	book, ok := e.books[market]
	return book, ok
}

// Markets lists open markets, sorted.
func (e *Engine) Markets() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	markets := make([]string, 0, len(e.books))
	for market := range e.books {
		markets = append(markets, market)
	}
	sort.Strings(markets)
	return markets
}

// Handle registers a handler that receives the committed event sequence of
// every successful command, exactly once per command.
func (e *Engine) Handle(h EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

// Submit processes an order on its market's book and fans the resulting
// events out to registered handlers.
func (e *Engine) Submit(market string, order Order) ([]Event, error) {
	book, ok := e.Book(market)
	if !ok {
		return nil, errors.Wrap(ErrMarketNotFound, market)
	}
	events, err := book.Process(order)
	if err != nil {
		return events, err
	}
	e.dispatch(market, events)
	return events, nil
}

// Cancel removes a resting order from its market's book.
func (e *Engine) Cancel(market string, orderID uint64) (Event, error) {
	book, ok := e.Book(market)
	if !ok {
		return Event{}, errors.Wrap(ErrMarketNotFound, market)
	}
	event, err := book.Cancel(orderID)
	if err != nil {
		return Event{}, err
	}
	e.dispatch(market, []Event{event})
	return event, nil
}

// Depth snapshots a market's book.
func (e *Engine) Depth(market string) (Depth, error) {
	book, ok := e.Book(market)
	if !ok {
		return Depth{}, errors.Wrap(ErrMarketNotFound, market)
	}
	return book.Depth(), nil
}

// dispatch runs outside the book lock: handlers never block matching.
func (e *Engine) dispatch(market string, events []Event) {
	if len(events) == 0 {
		return
	}
	e.mu.RLock()
	handlers := e.handlers
	e.mu.RUnlock()
	for _, h := range handlers {
		h.HandleEvents(market, events)
	}
}
