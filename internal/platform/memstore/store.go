// Package memstore keeps catalog, orders, token claims and idempotency
// results in process memory. It backs local runs and tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fitstack/walletpay/internal/domain"
)

// Store implements domain.ProductCatalog, domain.OrderRepository,
// domain.TokenRegistry and domain.IdempotencyStore.
type Store struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	orders   map[string]domain.Order
	claims   map[string]time.Time
	results  map[string]storedResult
	now      func() time.Time
}

type storedResult struct {
	result    domain.OrderSubmissionResult
	expiresAt time.Time
}

// New creates a store seeded with products.
func New(products ...domain.Product) *Store {
	s := &Store{
		products: make(map[string]domain.Product, len(products)),
		orders:   make(map[string]domain.Order),
		claims:   make(map[string]time.Time),
		results:  make(map[string]storedResult),
		now:      time.Now,
	}
	for _, p := range products {
		s.products[p.SKU] = p
	}
	return s
}

// GetProduct implements domain.ProductCatalog.
func (s *Store) GetProduct(_ context.Context, sku string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[sku]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

// ListProducts implements domain.ProductCatalog. Products are sorted by SKU.
func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

// CreateOrder implements domain.OrderRepository.
func (s *Store) CreateOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	s.orders[order.ID] = copyOrder(*order)
	return nil
}

// GetOrder implements domain.OrderRepository.
func (s *Store) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

// TransitionOrder implements domain.OrderRepository.
func (s *Store) TransitionOrder(_ context.Context, id string, from, to domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status != from {
		return fmt.Errorf("order %s is %s: %w", id, o.Status, domain.ErrOrderNotPending)
	}
	o.Status = to
	o.UpdatedAt = s.now().UTC()
	s.orders[id] = o
	return nil
}

// UpdatePayment implements domain.OrderRepository.
func (s *Store) UpdatePayment(_ context.Context, status domain.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[status.OrderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status.Status
	o.StatusDetail = status.StatusDetail
	if status.PaymentID != "" {
		o.GatewayPaymentID = status.PaymentID
	}
	o.UpdatedAt = s.now().UTC()
	s.orders[status.OrderID] = o
	return nil
}

// Claim implements domain.TokenRegistry.
func (s *Store) Claim(_ context.Context, fingerprint string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if exp, ok := s.claims[fingerprint]; ok && (exp.IsZero() || now.Before(exp)) {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	s.claims[fingerprint] = exp
	return true, nil
}

// Get implements domain.IdempotencyStore.
func (s *Store) Get(_ context.Context, key string) (*domain.OrderSubmissionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[key]
	if !ok || (!r.expiresAt.IsZero() && !s.now().Before(r.expiresAt)) {
		return nil, nil
	}
	res := r.result
	return &res, nil
}

// Put implements domain.IdempotencyStore.
func (s *Store) Put(_ context.Context, key string, result domain.OrderSubmissionResult, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.results[key] = storedResult{result: result, expiresAt: exp}
	return nil
}

func copyOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.LineItem(nil), o.Items...)
	return o
}
