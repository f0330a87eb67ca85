package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const (
	cartPrefix     = "cart:"
	checkoutPrefix = "checkout:"

	cartItemsSuffix       = ":cartItems"
	shippingAddressSuffix = ":shippingAddress"
	paymentMethodSuffix   = ":paymentMethod"
	sessionSuffix         = ":session"
	lastOrderSuffix       = ":lastOrder"
	lockSuffix            = ":lock"
)

// Store keeps per user and device checkout state in Redis.
type Store struct {
	client goredis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewStore creates store whose keys expire after ttl of inactivity.
func NewStore(client goredis.Cmdable, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{client: client, ttl: ttl, logger: logger}
}

func cartKey(owner model.CartOwner, suffix string) string {
	return cartPrefix + owner.Key() + suffix
}

func checkoutKey(owner model.CartOwner, suffix string) string {
	return checkoutPrefix + owner.Key() + suffix
}

func (s *Store) LoadCart(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	var lines []model.CartLine
	found, err := s.getJSON(ctx, cartKey(owner, cartItemsSuffix), &lines)
	if err != nil || !found {
		return model.Cart{}, err
	}
	return model.Cart{Lines: lines}, nil
}

func (s *Store) SaveCart(ctx context.Context, owner model.CartOwner, cart model.Cart) error {
	lines := cart.Lines
	if lines == nil {
		lines = []model.CartLine{}
	}
	return s.setJSON(ctx, cartKey(owner, cartItemsSuffix), lines)
}

func (s *Store) ClearCart(ctx context.Context, owner model.CartOwner) error {
	return s.client.Del(ctx, cartKey(owner, cartItemsSuffix)).Err()
}

func (s *Store) LoadPreferences(ctx context.Context, owner model.CartOwner) (model.Preferences, error) {
	values, err := s.client.MGet(ctx,
		cartKey(owner, shippingAddressSuffix),
		cartKey(owner, paymentMethodSuffix),
	).Result()
	if err != nil {
		return model.Preferences{}, err
	}

	var prefs model.Preferences
	if raw, ok := values[0].(string); ok && raw != "" {
		var addr model.ShippingAddress
		if err := json.Unmarshal([]byte(raw), &addr); err != nil {
			s.logger.Warn("discarding unreadable shipping address", slog.String("owner", owner.Key()), slog.Any("error", err))
		} else {
			prefs.ShippingAddress = &addr
		}
	}
	if raw, ok := values[1].(string); ok {
		if method := model.PaymentMethod(raw); method.Valid() {
			prefs.PaymentMethod = method
		}
	}
	return prefs, nil
}

func (s *Store) SaveShippingAddress(ctx context.Context, owner model.CartOwner, address model.ShippingAddress) error {
	return s.setJSON(ctx, cartKey(owner, shippingAddressSuffix), address)
}

func (s *Store) SavePaymentMethod(ctx context.Context, owner model.CartOwner, method model.PaymentMethod) error {
	return s.client.Set(ctx, cartKey(owner, paymentMethodSuffix), string(method), s.ttl).Err()
}

func (s *Store) LoadSession(ctx context.Context, owner model.CartOwner) (*model.CheckoutSession, error) {
	var session model.CheckoutSession
	found, err := s.getJSON(ctx, checkoutKey(owner, sessionSuffix), &session)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domainErrors.ErrNotFound
	}
	return &session, nil
}

func (s *Store) SaveSession(ctx context.Context, owner model.CartOwner, session model.CheckoutSession) error {
	return s.setJSON(ctx, checkoutKey(owner, sessionSuffix), session)
}

func (s *Store) RememberLastOrder(ctx context.Context, owner model.CartOwner, orderID string) error {
	return s.client.Set(ctx, checkoutKey(owner, lastOrderSuffix), orderID, s.ttl).Err()
}

func (s *Store) LastOrder(ctx context.Context, owner model.CartOwner) (string, error) {
	id, err := s.client.Get(ctx, checkoutKey(owner, lastOrderSuffix)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	return id, err
}

// Acquire takes the submission lock of owner for at most ttl.
func (s *Store) Acquire(ctx context.Context, owner model.CartOwner, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, checkoutKey(owner, lockSuffix), 1, ttl).Result()
}

func (s *Store) Release(ctx context.Context, owner model.CartOwner) error {
	return s.client.Del(ctx, checkoutKey(owner, lockSuffix)).Err()
}

// HealthCheck verifies redis connectivity.
func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

func (s *Store) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) setJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.client.Set(ctx, key, raw, s.ttl).Err()
}
