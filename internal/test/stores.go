package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// CartStoreStub keeps carts and preferences in memory.
type CartStoreStub struct {
	Carts       map[string]model.Cart
	Preferences map[string]model.Preferences
	Err         error
	ClearErr    error
	Saves       int

	mu sync.Mutex
}

// NewCartStoreStub constructs an empty store.
func NewCartStoreStub() *CartStoreStub {
	return &CartStoreStub{
		Carts:       make(map[string]model.Cart),
		Preferences: make(map[string]model.Preferences),
	}
}

// LoadCart returns stored cart or an empty one.
func (s *CartStoreStub) LoadCart(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Cart{}, s.Err
	}
	return s.Carts[owner.Key()], nil
}

// SaveCart stores cart.
func (s *CartStoreStub) SaveCart(ctx context.Context, owner model.CartOwner, cart model.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Saves++
	s.Carts[owner.Key()] = cart
	return nil
}

// ClearCart drops cart lines and keeps preferences.
func (s *CartStoreStub) ClearCart(ctx context.Context, owner model.CartOwner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClearErr != nil {
		return s.ClearErr
	}
	delete(s.Carts, owner.Key())
	return nil
}

// LoadPreferences returns stored preferences.
func (s *CartStoreStub) LoadPreferences(ctx context.Context, owner model.CartOwner) (model.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Preferences{}, s.Err
	}
	return s.Preferences[owner.Key()], nil
}

// SaveShippingAddress remembers address.
func (s *CartStoreStub) SaveShippingAddress(ctx context.Context, owner model.CartOwner, address model.ShippingAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	prefs := s.Preferences[owner.Key()]
	prefs.ShippingAddress = &address
	s.Preferences[owner.Key()] = prefs
	return nil
}

// SavePaymentMethod remembers method.
func (s *CartStoreStub) SavePaymentMethod(ctx context.Context, owner model.CartOwner, method model.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	prefs := s.Preferences[owner.Key()]
	prefs.PaymentMethod = method
	s.Preferences[owner.Key()] = prefs
	return nil
}

// SessionStoreStub keeps checkout sessions and last order markers in memory.
type SessionStoreStub struct {
	Sessions   map[string]model.CheckoutSession
	LastOrders map[string]string
	Err        error
	SaveErr    error

	mu sync.Mutex
}

// NewSessionStoreStub constructs an empty store.
func NewSessionStoreStub() *SessionStoreStub {
	return &SessionStoreStub{
		Sessions:   make(map[string]model.CheckoutSession),
		LastOrders: make(map[string]string),
	}
}

// LoadSession returns stored session or ErrNotFound.
func (s *SessionStoreStub) LoadSession(ctx context.Context, owner model.CartOwner) (*model.CheckoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	session, ok := s.Sessions[owner.Key()]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &session, nil
}

// SaveSession stores session.
func (s *SessionStoreStub) SaveSession(ctx context.Context, owner model.CartOwner, session model.CheckoutSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Sessions[owner.Key()] = session
	return nil
}

// RememberLastOrder stores marker.
func (s *SessionStoreStub) RememberLastOrder(ctx context.Context, owner model.CartOwner, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastOrders[owner.Key()] = orderID
	return nil
}

// LastOrder returns marker or empty string.
func (s *SessionStoreStub) LastOrder(ctx context.Context, owner model.CartOwner) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	return s.LastOrders[owner.Key()], nil
}

// SubmissionLockStub is an in-memory mutual exclusion per owner.
type SubmissionLockStub struct {
	Held     map[string]bool
	Err      error
	Acquired int
	Released int

	mu sync.Mutex
}

// NewSubmissionLockStub constructs a lock with nothing held.
func NewSubmissionLockStub() *SubmissionLockStub {
	return &SubmissionLockStub{Held: make(map[string]bool)}
}

// Acquire takes the lock unless already held.
func (s *SubmissionLockStub) Acquire(ctx context.Context, owner model.CartOwner, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	if s.Held[owner.Key()] {
		return false, nil
	}
	s.Held[owner.Key()] = true
	s.Acquired++
	return true, nil
}

// Release frees the lock.
func (s *SubmissionLockStub) Release(ctx context.Context, owner model.CartOwner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Held, owner.Key())
	s.Released++
	return nil
}

var (
	_ repository.CartStore            = (*CartStoreStub)(nil)
	_ repository.CheckoutSessionStore = (*SessionStoreStub)(nil)
	_ repository.SubmissionLock       = (*SubmissionLockStub)(nil)
)
