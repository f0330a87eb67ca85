package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/polkiloo/storefront/internal/domain/model"
)

func TestNewJWTStrategy_DefaultTTL(t *testing.T) {
	strategy := NewJWTStrategy("secret", Options{})
	if strategy.ttl != 24*time.Hour {
		t.Fatalf("unexpected ttl: %s", strategy.ttl)
	}
}

func TestJWTStrategy_IssueAndParse(t *testing.T) {
	strategy := NewJWTStrategy("secret", Options{TTL: time.Minute})

	token, err := strategy.IssueToken(Identity{UserID: 42, Role: model.RoleStaff})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected compact jwt, got %q", token)
	}

	identity, err := strategy.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if identity.UserID != 42 || identity.Role != model.RoleStaff {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestJWTStrategy_DefaultsToCustomerRole(t *testing.T) {
	strategy := NewJWTStrategy("secret", Options{})
	token, err := strategy.IssueToken(Identity{UserID: 7})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	identity, err := strategy.ParseToken(token)
	if err != nil || identity.Role != model.RoleCustomer {
		t.Fatalf("expected customer role, got %+v err=%v", identity, err)
	}
}

func TestJWTStrategy_RejectsForeignSignature(t *testing.T) {
	issuer := NewJWTStrategy("secret", Options{})
	verifier := NewJWTStrategy("other-secret", Options{})

	token, err := issuer.IssueToken(Identity{UserID: 1})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := verifier.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTStrategy_RejectsExpired(t *testing.T) {
	strategy := NewJWTStrategy("secret", Options{TTL: time.Minute})
	issuedAt := time.Now().Add(-time.Hour)
	strategy.now = func() time.Time { return issuedAt }

	token, err := strategy.IssueToken(Identity{UserID: 1})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	strategy.now = time.Now
	if _, err := strategy.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTStrategy_RejectsMalformedClaims(t *testing.T) {
	strategy := NewJWTStrategy("secret", Options{})

	sign := func(c claims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return token
	}
	valid := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "5",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	cases := map[string]claims{
		"bad subject": {Role: model.RoleCustomer, RegisteredClaims: func() jwt.RegisteredClaims { c := valid; c.Subject = "abc"; return c }()},
		"zero user":   {Role: model.RoleCustomer, RegisteredClaims: func() jwt.RegisteredClaims { c := valid; c.Subject = "0"; return c }()},
		"bad role":    {Role: "root", RegisteredClaims: valid},
		"bad issuer":  {Role: model.RoleCustomer, RegisteredClaims: func() jwt.RegisteredClaims { c := valid; c.Issuer = "x"; return c }()},
		"no expiry":   {Role: model.RoleCustomer, RegisteredClaims: func() jwt.RegisteredClaims { c := valid; c.ExpiresAt = nil; return c }()},
	}
	for name, c := range cases {
		if _, err := strategy.ParseToken(sign(c)); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}

	if _, err := strategy.ParseToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
