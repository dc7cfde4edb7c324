package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

var _ ports.Store = (*Store)(nil)

// Store is an in-memory persistence adapter for orders, products and carts.
// One lock guards all three collections so Place and Reserve are atomic.
type Store struct {
	mu       sync.RWMutex
	orders   map[string]*domain.Order
	products map[string]*domain.Product
	carts    map[string]*domain.Cart
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		orders:   map[string]*domain.Order{},
		products: map[string]*domain.Product{},
		carts:    map[string]*domain.Cart{},
	}
}

// PutProduct inserts or replaces a product. Used for seeding.
func (s *Store) PutProduct(product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := product
	s.products[product.ID] = &clone
}

// PutCart inserts or replaces a cart. Used for seeding.
func (s *Store) PutCart(cart domain.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := cart
	clone.Items = append([]domain.LineItem(nil), cart.Items...)
	s.carts[cart.ID] = &clone
}

// HasCart reports whether the cart still exists.
func (s *Store) HasCart(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.carts[id]
	return ok
}

// OrderCount returns the number of stored orders.
func (s *Store) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

func (s *Store) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order.Clone()
	return order.Clone(), nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*domain.Order, 0)
	for _, order := range s.orders {
		if order.UserID == userID {
			list = append(list, order.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].OrderDate.Equal(list[j].OrderDate) {
			return list[i].ID < list[j].ID
		}
		return list[i].OrderDate.After(list[j].OrderDate)
	})
	return list, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[id]
	if !ok {
		return nil, ports.ErrProductNotFound
	}
	clone := *product
	return &clone, nil
}

func (s *Store) Reserve(ctx context.Context, lines []domain.StockLine) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reserveLocked(lines)
}

func (s *Store) Release(ctx context.Context, lines []domain.StockLine) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range lines {
		if product, ok := s.products[line.ProductID]; ok {
			product.TotalStock += line.Quantity
		}
	}
	return nil
}

func (s *Store) DeleteCart(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, id)
	return nil
}

// Place decrements stock, stores the order and drops the cart under one lock.
func (s *Store) Place(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reserveLocked(domain.StockLines(order.Items)); err != nil {
		return nil, err
	}
	s.orders[order.ID] = order.Clone()
	if order.CartID != nil {
		delete(s.carts, *order.CartID)
	}
	return order.Clone(), nil
}

// reserveLocked checks every line before touching any stock.
func (s *Store) reserveLocked(lines []domain.StockLine) error {
	remaining := make(map[string]int, len(lines))
	for _, line := range lines {
		product, ok := s.products[line.ProductID]
		if !ok {
			return ports.NewInsufficientStockError(line)
		}
		left, seen := remaining[line.ProductID]
		if !seen {
			left = product.TotalStock
		}
		if left < line.Quantity {
			return ports.NewInsufficientStockError(line)
		}
		remaining[line.ProductID] = left - line.Quantity
	}
	for id, left := range remaining {
		s.products[id].TotalStock = left
	}
	return nil
}
