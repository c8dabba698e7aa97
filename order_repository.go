package lob

import (
	"sync"

	"github.com/pkg/errors"
)

// OrderRepository persists the latest known state of every order the book
// has touched.
type OrderRepository interface {
	Save(order Order) error
	GetByID(id uint64) (Order, error)
}

var NOPOrderRepository OrderRepository = &nopOrderRepository{}

type nopOrderRepository struct {
}

func (n *nopOrderRepository) Save(order Order) error {
	return nil
}

func (n *nopOrderRepository) GetByID(id uint64) (Order, error) {
	return Order{}, nil
}

// InMemoryOrderRepository keeps saved orders in a map.
type InMemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[uint64]Order
}

func NewInMemoryOrderRepository() *InMemoryOrderRepository {
	return &InMemoryOrderRepository{orders: make(map[uint64]Order)}
}

func (r *InMemoryOrderRepository) Save(order Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order
	return nil
}

func (r *InMemoryOrderRepository) GetByID(id uint64) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return Order{}, errors.Wrapf(ErrOrderNotFound, "repository has no order %d", id)
	}
	return order, nil
}
