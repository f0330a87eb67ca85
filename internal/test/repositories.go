package test

import (
	"context"
	"sync"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, login, passwordHash string, role model.Role) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	if role == "" {
		role = model.RoleCustomer
	}
	user := &model.User{ID: s.Next, Login: login, PasswordHash: passwordHash, Role: role}
	s.Next++
	s.Users[login] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByLogin fetches user by login or returns not found.
func (s *UserRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// OrderRepositoryStub keeps orders in memory and enforces idempotency keys and
// version checks like the real storage. Fn fields override behaviour.
type OrderRepositoryStub struct {
	CreateFn     func(context.Context, *model.Order, model.OrderEvent) (*model.Order, bool, error)
	GetByIDFn    func(context.Context, string) (*model.Order, error)
	ListByUserFn func(context.Context, int64) ([]model.Order, error)
	ListFn       func(context.Context, model.OrderFilter) ([]model.Order, error)
	UpdateFn     func(context.Context, repository.OrderUpdate) error

	Err     error
	Calls   int
	Events  []model.OrderEvent
	Updates []repository.OrderUpdate

	mu    sync.Mutex
	byID  map[string]*model.Order
	byKey map[string]string
	ids   []string
}

// NewOrderRepositoryStub constructs an empty stub.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{}
}

// Put stores order as is, bypassing idempotency handling.
func (s *OrderRepositoryStub) Put(order *model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(cloneOrder(order))
}

func (s *OrderRepositoryStub) store(order *model.Order) {
	if s.byID == nil {
		s.byID = make(map[string]*model.Order)
		s.byKey = make(map[string]string)
	}
	if _, exists := s.byID[order.ID]; !exists {
		s.ids = append(s.ids, order.ID)
	}
	s.byID[order.ID] = order
	if order.IdempotencyKey != "" {
		s.byKey[order.IdempotencyKey] = order.ID
	}
}

// Create stores a new order or replays the one owning the idempotency key.
func (s *OrderRepositoryStub) Create(ctx context.Context, order *model.Order, event model.OrderEvent) (*model.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order, event)
	}
	if s.Err != nil {
		return nil, false, s.Err
	}
	if id, ok := s.byKey[order.IdempotencyKey]; ok && order.IdempotencyKey != "" {
		existing := s.byID[id]
		if existing.UserID != order.UserID {
			return nil, false, domainErrors.ErrAlreadyExists
		}
		return cloneOrder(existing), false, nil
	}
	s.store(cloneOrder(order))
	s.Events = append(s.Events, event)
	return cloneOrder(order), true, nil
}

// GetByID returns a copy of the stored order.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	order, ok := s.byID[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return cloneOrder(order), nil
}

// ListByUser returns orders of user, newest first.
func (s *OrderRepositoryStub) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.ListByUserFn != nil {
		return s.ListByUserFn(ctx, userID)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.Order
	for i := len(s.ids) - 1; i >= 0; i-- {
		if order := s.byID[s.ids[i]]; order.UserID == userID {
			out = append(out, *cloneOrder(order))
		}
	}
	return out, nil
}

// List returns orders matching filter status, newest first.
func (s *OrderRepositoryStub) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.ListFn != nil {
		return s.ListFn(ctx, filter)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.Order
	for i := len(s.ids) - 1; i >= 0; i-- {
		if order := s.byID[s.ids[i]]; filter.Status == "" || order.Status == filter.Status {
			out = append(out, *cloneOrder(order))
		}
	}
	return out, nil
}

// Update applies a version checked write.
func (s *OrderRepositoryStub) Update(ctx context.Context, update repository.OrderUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	s.Updates = append(s.Updates, update)
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, update)
	}
	if s.Err != nil {
		return s.Err
	}
	stored, ok := s.byID[update.Order.ID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if stored.Version != update.ExpectedVersion {
		return domainErrors.ErrConcurrentModification
	}
	update.Order.Version = update.ExpectedVersion + 1
	s.store(cloneOrder(update.Order))
	if update.Event != nil {
		s.Events = append(s.Events, *update.Event)
	}
	return nil
}

func cloneOrder(order *model.Order) *model.Order {
	c := *order
	c.Items = append([]model.OrderItem(nil), order.Items...)
	c.StatusHistory = append([]model.StatusEntry(nil), order.StatusHistory...)
	return &c
}

// ProductCatalogStub serves products from a map.
type ProductCatalogStub struct {
	Products map[string]model.Product
	Err      error
}

// GetProduct returns a copy of the configured product.
func (s ProductCatalogStub) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	product, ok := s.Products[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &product, nil
}

// ReviewLookupStub reports reviewed products per user.
type ReviewLookupStub struct {
	Reviewed map[int64][]string
	Err      error
}

// ReviewedProducts marks each requested product the user reviewed.
func (s ReviewLookupStub) ReviewedProducts(ctx context.Context, userID int64, productIDs []string) (map[string]bool, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		out[id] = false
		for _, reviewed := range s.Reviewed[userID] {
			if reviewed == id {
				out[id] = true
			}
		}
	}
	return out, nil
}

// OutboxRepositoryStub hands out configured batches and records sent ids.
type OutboxRepositoryStub struct {
	Batches [][]model.OutboxRecord
	Err     error
	MarkErr error
	Sent    []int64

	mu    sync.Mutex
	calls int
}

// ClaimBatch returns configured batches in order, then nothing.
func (s *OutboxRepositoryStub) ClaimBatch(ctx context.Context, limit int) ([]model.OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	s.calls++
	if s.calls > len(s.Batches) {
		return nil, nil
	}
	batch := s.Batches[s.calls-1]
	if limit > 0 && len(batch) > limit {
		batch = batch[:limit]
	}
	return batch, nil
}

// MarkSent records delivered event id.
func (s *OutboxRepositoryStub) MarkSent(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MarkErr != nil {
		return s.MarkErr
	}
	s.Sent = append(s.Sent, id)
	return nil
}

var (
	_ repository.UserRepository   = (*UserRepositoryStub)(nil)
	_ repository.OrderRepository  = (*OrderRepositoryStub)(nil)
	_ repository.ProductCatalog   = ProductCatalogStub{}
	_ repository.ReviewLookup     = ReviewLookupStub{}
	_ repository.OutboxRepository = (*OutboxRepositoryStub)(nil)
)
