// Package memory keeps every store in process memory. It backs the "memory" store driver
// for local runs and the service tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/fjod/storefront/internal/domain"
)

// Store implements the catalog, cart, wishlist, order, user, outbox and ledger repositories
// plus a Transactor. A transaction holds the single lock for its whole duration and restores
// a snapshot if its function fails.
type Store struct {
	mu sync.Mutex

	products  map[string]domain.Product
	variants  map[string]domain.Variant
	carts     map[string]domain.Cart // userID -> cart
	wishlists map[string]domain.Wishlist
	orders    map[string]domain.Order
	users     map[string]domain.User
	outbox    []domain.OutboxEvent
	intents   map[string]domain.PaymentIntent
	cases     map[string]domain.ReconciliationCase
}

func NewStore() *Store {
	return &Store{
		products:  make(map[string]domain.Product),
		variants:  make(map[string]domain.Variant),
		carts:     make(map[string]domain.Cart),
		wishlists: make(map[string]domain.Wishlist),
		orders:    make(map[string]domain.Order),
		users:     make(map[string]domain.User),
		intents:   make(map[string]domain.PaymentIntent),
		cases:     make(map[string]domain.ReconciliationCase),
	}
}

type txKey struct{}

// lock takes the store lock unless ctx belongs to a running transaction of this store.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) == s {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// Stored values never share mutable slices with callers, so shallow map copies are enough.
type snapshot struct {
	products  map[string]domain.Product
	variants  map[string]domain.Variant
	carts     map[string]domain.Cart
	wishlists map[string]domain.Wishlist
	orders    map[string]domain.Order
	users     map[string]domain.User
	outbox    []domain.OutboxEvent
	intents   map[string]domain.PaymentIntent
	cases     map[string]domain.ReconciliationCase
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		products:  maps.Clone(s.products),
		variants:  maps.Clone(s.variants),
		carts:     maps.Clone(s.carts),
		wishlists: maps.Clone(s.wishlists),
		orders:    maps.Clone(s.orders),
		users:     maps.Clone(s.users),
		outbox:    slices.Clone(s.outbox),
		intents:   maps.Clone(s.intents),
		cases:     maps.Clone(s.cases),
	}
}

func (s *Store) restore(snap snapshot) {
	s.products = snap.products
	s.variants = snap.variants
	s.carts = snap.carts
	s.wishlists = snap.wishlists
	s.orders = snap.orders
	s.users = snap.users
	s.outbox = snap.outbox
	s.intents = snap.intents
	s.cases = snap.cases
}

// paginate returns the page window of items.
func paginate[T any](items []T, page domain.PageRequest) []T {
	start := int(page.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := min(start+page.Limit, len(items))
	return slices.Clone(items[start:end])
}
