package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

func performRequest(t *testing.T, method, route, path string, handler gin.HandlerFunc, setup func(*gin.Context), body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, route, func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		handler(c)
	})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func asCustomer(id int64) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDContextKey, id)
		c.Set(middleware.RoleContextKey, model.RoleCustomer)
	}
}

func asStaff(c *gin.Context) {
	c.Set(middleware.UserIDContextKey, int64(99))
	c.Set(middleware.RoleContextKey, model.RoleStaff)
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(resp.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", resp.Body.String(), err)
	}
	return v
}

func TestCurrentActorAndOwner(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := CurrentUserID(c); got != 0 {
		t.Fatalf("expected 0 when not set, got %d", got)
	}
	if actor := CurrentActor(c); actor.Role != model.RoleCustomer {
		t.Fatalf("expected customer role by default, got %q", actor.Role)
	}

	c.Set(middleware.UserIDContextKey, int64(42))
	c.Set(middleware.RoleContextKey, model.RoleStaff)
	c.Request.Header.Set(DeviceIDHeader, " tablet ")
	if actor := CurrentActor(c); actor.UserID != 42 || !actor.IsStaff() {
		t.Fatalf("unexpected actor %+v", actor)
	}
	if owner := CurrentOwner(c); owner.UserID != 42 || owner.DeviceID != "tablet" {
		t.Fatalf("unexpected owner %+v", owner)
	}
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
		kind string
	}{
		{domainErrors.NewValidationError("phone", "invalid phone"), http.StatusUnprocessableEntity, "validation"},
		{domainErrors.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{domainErrors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{domainErrors.ErrNotFound, http.StatusNotFound, "not_found"},
		{domainErrors.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{domainErrors.ErrConcurrentModification, http.StatusConflict, "concurrent_modification"},
		{domainErrors.ErrSubmissionInFlight, http.StatusConflict, "submission_in_flight"},
		{domainErrors.ErrAlreadyExists, http.StatusConflict, "conflict"},
		{domainErrors.ErrIdempotencyMismatch, http.StatusConflict, "idempotency_mismatch"},
		{domainErrors.ErrSubmissionFailure, http.StatusBadGateway, "submission_failure"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			resp := performRequest(t, http.MethodGet, "/", "/", func(c *gin.Context) { respondError(c, tc.err) }, nil, nil, nil)
			if resp.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, resp.Code)
			}
			if got := decode[dto.ErrorResponse](t, resp); got.Code != tc.kind {
				t.Fatalf("expected code %q, got %q", tc.kind, got.Code)
			}
		})
	}

	resp := performRequest(t, http.MethodGet, "/", "/", func(c *gin.Context) {
		respondError(c, domainErrors.NewValidationError("phone", "invalid phone"))
	}, nil, nil, nil)
	if got := decode[dto.ErrorResponse](t, resp); got.Fields["phone"] == "" {
		t.Fatalf("expected field errors, got %+v", got)
	}
}

func TestAuthHandlerRegister(t *testing.T) {
	login := testhelpers.RandomASCIIString(7, 14)
	password := testhelpers.RandomASCIIString(16, 32)
	body, _ := json.Marshal(dto.AuthRequest{Login: login, Password: password})
	handler := NewAuthHandler(testhelpers.AuthFacadeStub{RegisterFn: func(ctx context.Context, gotLogin, gotPassword string) (string, error) {
		if gotLogin != login || gotPassword != password {
			t.Fatalf("unexpected credentials passed to facade: %q %q", gotLogin, gotPassword)
		}
		return "token", nil
	}})

	resp := performRequest(t, http.MethodPost, "/register", "/register", handler.Register, nil, body, jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if resp.Header().Get("Authorization") != "Bearer token" {
		t.Fatalf("expected auth header, got %q", resp.Header().Get("Authorization"))
	}
	if got := decode[dto.AuthResponse](t, resp); got.Token != "token" {
		t.Fatalf("expected token in body, got %+v", got)
	}
}

func TestAuthHandlerRegisterErrors(t *testing.T) {
	resp := performRequest(t, http.MethodPost, "/register", "/register", NewAuthHandler(testhelpers.AuthFacadeStub{}).Register, nil, []byte("{"), jsonHeaders)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", resp.Code)
	}

	body, _ := json.Marshal(dto.AuthRequest{Login: "user", Password: "pass"})
	cases := []struct {
		err  error
		want int
	}{
		{domainErrors.ErrInvalidCredentials, http.StatusBadRequest},
		{domainErrors.ErrAlreadyExists, http.StatusConflict},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		handler := NewAuthHandler(testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, string, string) (string, error) {
			return "", tc.err
		}})
		resp := performRequest(t, http.MethodPost, "/register", "/register", handler.Register, nil, body, jsonHeaders)
		if resp.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, resp.Code)
		}
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	body, _ := json.Marshal(dto.AuthRequest{Login: "user", Password: "pass"})
	resp := performRequest(t, http.MethodPost, "/login", "/login", NewAuthHandler(testhelpers.AuthFacadeStub{}).Login, nil, body, jsonHeaders)
	if resp.Code != http.StatusOK || resp.Header().Get("Authorization") == "" {
		t.Fatalf("expected 200 with auth header, got %d", resp.Code)
	}

	handler := NewAuthHandler(testhelpers.AuthFacadeStub{AuthenticateFn: func(context.Context, string, string) (string, error) {
		return "", domainErrors.ErrInvalidCredentials
	}})
	resp = performRequest(t, http.MethodPost, "/login", "/login", handler.Login, nil, body, jsonHeaders)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestCartHandler(t *testing.T) {
	cart := model.Cart{Lines: []model.CartLine{{ProductID: "p1", Name: "Kettle", Price: decimal.RequireFromString("450"), Quantity: 2, Stock: 5}}}
	var added struct {
		owner    model.CartOwner
		product  string
		quantity int
	}
	handler := NewCartHandler(testhelpers.CartFacadeStub{
		CartFn: func(context.Context, model.CartOwner) (model.Cart, error) { return cart, nil },
		AddFn: func(_ context.Context, owner model.CartOwner, productID, _ string, quantity int) (model.Cart, error) {
			added.owner, added.product, added.quantity = owner, productID, quantity
			return cart, nil
		},
		UpdateFn: func(_ context.Context, _ model.CartOwner, productID, _ string, quantity int) (model.Cart, error) {
			if productID != "p1" || quantity != 3 {
				t.Fatalf("unexpected update %s x%d", productID, quantity)
			}
			return cart, nil
		},
		RemoveFn: func(_ context.Context, _ model.CartOwner, productID, variant string) (model.Cart, error) {
			if productID != "p1" || variant != "red" {
				t.Fatalf("unexpected remove %s/%s", productID, variant)
			}
			return model.Cart{}, nil
		},
	})
	headers := map[string]string{"Content-Type": "application/json", DeviceIDHeader: "web"}

	resp := performRequest(t, http.MethodGet, "/api/cart", "/api/cart", handler.Get, asCustomer(7), nil, headers)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	got := decode[dto.CartResponse](t, resp)
	if len(got.CartItems) != 1 || !got.TotalPrice.Equal(decimal.RequireFromString("1095")) {
		t.Fatalf("unexpected cart response %+v", got)
	}

	body, _ := json.Marshal(dto.CartItemRequest{ProductID: "p1"})
	resp = performRequest(t, http.MethodPost, "/api/cart/items", "/api/cart/items", handler.Add, asCustomer(7), body, headers)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if added.product != "p1" || added.quantity != 1 || added.owner != (model.CartOwner{UserID: 7, DeviceID: "web"}) {
		t.Fatalf("unexpected add call %+v", added)
	}

	resp = performRequest(t, http.MethodPost, "/api/cart/items", "/api/cart/items", handler.Add, nil, []byte(`{"quantity":2}`), headers)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without product, got %d", resp.Code)
	}

	body, _ = json.Marshal(dto.CartQuantityRequest{Quantity: 3})
	resp = performRequest(t, http.MethodPut, "/api/cart/items/:productId", "/api/cart/items/p1", handler.Update, nil, body, headers)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodDelete, "/api/cart/items/:productId", "/api/cart/items/p1?variant=red", handler.Remove, nil, nil, headers)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := decode[dto.CartResponse](t, resp); got.CartItems == nil {
		t.Fatal("expected empty list instead of null")
	}
}

func TestCartHandlerUnknownProduct(t *testing.T) {
	handler := NewCartHandler(testhelpers.CartFacadeStub{AddFn: func(context.Context, model.CartOwner, string, string, int) (model.Cart, error) {
		return model.Cart{}, domainErrors.ErrNotFound
	}})
	body, _ := json.Marshal(dto.CartItemRequest{ProductID: "missing", Quantity: 1})
	resp := performRequest(t, http.MethodPost, "/api/cart/items", "/api/cart/items", handler.Add, nil, body, jsonHeaders)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestCheckoutHandlerSteps(t *testing.T) {
	var gotAddress model.ShippingAddress
	var gotPayment model.PaymentSelection
	var gotStep model.CheckoutStep
	handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{
		ShippingFn: func(_ context.Context, _ model.CartOwner, address model.ShippingAddress) (*model.CheckoutView, error) {
			gotAddress = address
			return &model.CheckoutView{Session: model.CheckoutSession{Step: model.StepPayment, Furthest: model.StepPayment, Address: &address}}, nil
		},
		PaymentFn: func(_ context.Context, _ model.CartOwner, payment model.PaymentSelection) (*model.CheckoutView, error) {
			gotPayment = payment
			return &model.CheckoutView{Session: model.CheckoutSession{Step: model.StepReview, Furthest: model.StepReview, Payment: &payment}}, nil
		},
		BackFn: func(_ context.Context, _ model.CartOwner, step model.CheckoutStep) (*model.CheckoutView, error) {
			gotStep = step
			return &model.CheckoutView{Session: model.CheckoutSession{Step: step, Furthest: model.StepReview}}, nil
		},
	})

	phone := testhelpers.RandomPhone()
	address := []byte(`{"fullName":"Rahim Uddin","phone":"` + phone + `","address":"House 12","city":"Dhaka","postalCode":"1207","region":"dhaka"}`)
	resp := performRequest(t, http.MethodPost, "/api/checkout/shipping", "/api/checkout/shipping", handler.Shipping, nil, address, jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotAddress.RecipientName != "Rahim Uddin" || gotAddress.Phone != phone || gotAddress.Region != model.RegionDhaka {
		t.Fatalf("unexpected address %+v", gotAddress)
	}
	if got := decode[dto.CheckoutResponse](t, resp); got.Step != string(model.StepPayment) || got.ShippingAddress == nil {
		t.Fatalf("unexpected checkout response %+v", got)
	}

	payment := []byte(`{"paymentMethod":"bkash","paymentDetails":{"transactionId":"TX12345","accountNumber":"01712345678"}}`)
	resp = performRequest(t, http.MethodPost, "/api/checkout/payment", "/api/checkout/payment", handler.Payment, nil, payment, jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotPayment.Method != model.PaymentBkash || gotPayment.Details == nil || gotPayment.Details.TransactionID != "TX12345" {
		t.Fatalf("unexpected payment %+v", gotPayment)
	}

	resp = performRequest(t, http.MethodPost, "/api/checkout/payment", "/api/checkout/payment", handler.Payment, nil, []byte(`{}`), jsonHeaders)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without method, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodPost, "/api/checkout/back", "/api/checkout/back", handler.Back, nil, []byte(`{"step":"address"}`), jsonHeaders)
	if resp.Code != http.StatusOK || gotStep != model.StepAddress {
		t.Fatalf("expected back to address, got %d %q", resp.Code, gotStep)
	}
}

func TestCheckoutHandlerValidationErrors(t *testing.T) {
	handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{ShippingFn: func(context.Context, model.CartOwner, model.ShippingAddress) (*model.CheckoutView, error) {
		return nil, domainErrors.NewValidationError("phone", "invalid phone")
	}})
	resp := performRequest(t, http.MethodPost, "/api/checkout/shipping", "/api/checkout/shipping", handler.Shipping, nil, []byte(`{"phone":"123"}`), jsonHeaders)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
}

func TestCheckoutHandlerPlace(t *testing.T) {
	handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{})
	resp := performRequest(t, http.MethodPost, "/api/checkout/place", "/api/checkout/place", handler.Place, asCustomer(7), nil, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if got := decode[dto.CreateOrderResponse](t, resp); got.OrderID != "order-1" || got.Status != string(model.OrderStatusProcessing) {
		t.Fatalf("unexpected response %+v", got)
	}

	cases := []struct {
		err  error
		want int
	}{
		{domainErrors.ErrSubmissionInFlight, http.StatusConflict},
		{domainErrors.ErrSubmissionFailure, http.StatusBadGateway},
	}
	for _, tc := range cases {
		handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{PlaceFn: func(context.Context, model.CartOwner) (*model.Order, error) {
			return nil, tc.err
		}})
		resp := performRequest(t, http.MethodPost, "/api/checkout/place", "/api/checkout/place", handler.Place, nil, nil, nil)
		if resp.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, resp.Code)
		}
	}
}

func TestCheckoutHandlerSuccess(t *testing.T) {
	handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{})
	resp := performRequest(t, http.MethodGet, "/api/checkout/success/:orderId", "/api/checkout/success/o1", handler.Success, nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := decode[dto.OrderResponse](t, resp); got.ID != "o1" {
		t.Fatalf("unexpected order %+v", got)
	}

	handler = NewCheckoutHandler(testhelpers.CheckoutFacadeStub{SuccessFn: func(context.Context, model.CartOwner, string) (*model.Order, error) {
		return nil, domainErrors.ErrNotFound
	}})
	resp = performRequest(t, http.MethodGet, "/api/checkout/success/:orderId", "/api/checkout/success/o2", handler.Success, nil, nil, nil)
	if resp.Code != http.StatusNotFound || resp.Header().Get("Location") != "/cart" {
		t.Fatalf("expected 404 with cart redirect, got %d %q", resp.Code, resp.Header().Get("Location"))
	}
}

func TestOrderHandlerCreate(t *testing.T) {
	var got model.OrderSubmission
	created := true
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{SubmitFn: func(_ context.Context, submission model.OrderSubmission) (*model.Order, bool, error) {
		got = submission
		return &model.Order{ID: "o1", UserID: submission.UserID, Status: model.OrderStatusProcessing}, created, nil
	}})

	body := []byte(`{
		"orderItems":[{"product":"p1","name":"Kettle","quantity":1,"price":"450"}],
		"shippingAddress":{"fullName":"Rahim Uddin","phone":"01712345678","address":"House 12","city":"Dhaka","postalCode":"1207","region":"dhaka"},
		"paymentMethod":"cash_on_delivery",
		"itemsPrice":"450","shippingPrice":"60","taxPrice":"67.5","totalPrice":"577.5"
	}`)
	headers := map[string]string{"Content-Type": "application/json", IdempotencyKeyHeader: "key-1"}

	resp := performRequest(t, http.MethodPost, "/api/orders", "/api/orders", handler.Create, asCustomer(7), body, headers)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if got.UserID != 7 || got.IdempotencyKey != "key-1" || got.Payment.Method != model.PaymentCashOnDelivery {
		t.Fatalf("unexpected submission %+v", got)
	}
	if len(got.Items) != 1 || got.Address.City != "Dhaka" {
		t.Fatalf("unexpected submission payload %+v", got)
	}
	if got.ClientTotals == nil || !got.ClientTotals.TotalPrice.Equal(decimal.RequireFromString("577.5")) {
		t.Fatalf("expected client totals, got %+v", got.ClientTotals)
	}
	if resp := decode[dto.CreateOrderResponse](t, resp); resp.OrderID != "o1" {
		t.Fatalf("unexpected response %+v", resp)
	}

	created = false
	resp = performRequest(t, http.MethodPost, "/api/orders", "/api/orders", handler.Create, asCustomer(7), body, headers)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for replay, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodPost, "/api/orders", "/api/orders", handler.Create, asCustomer(7), []byte(`{"orderItems":[]}`), jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected facade to decide on empty orders, got %d", resp.Code)
	}
	if got.ClientTotals != nil {
		t.Fatalf("expected no client totals when omitted, got %+v", got.ClientTotals)
	}
}

func TestOrderHandlerCreateRejected(t *testing.T) {
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{SubmitFn: func(context.Context, model.OrderSubmission) (*model.Order, bool, error) {
		return nil, false, domainErrors.NewValidationError("totalPrice", "totals do not match")
	}})
	resp := performRequest(t, http.MethodPost, "/api/orders", "/api/orders", handler.Create, asCustomer(7), []byte(`{}`), jsonHeaders)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodPost, "/api/orders", "/api/orders", handler.Create, asCustomer(7), []byte(`{"orderItems":`), jsonHeaders)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestOrderHandlerListAndGet(t *testing.T) {
	orders := []model.Order{
		{ID: "o1", Status: model.OrderStatusDelivered, Items: []model.OrderItem{{ProductID: "p1", Quantity: 2}}},
		{ID: "o2", Status: model.OrderStatusProcessing},
	}
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{
		MineFn: func(_ context.Context, userID int64) ([]model.Order, error) {
			if userID != 7 {
				t.Fatalf("unexpected user %d", userID)
			}
			return orders, nil
		},
		OrderFn: func(_ context.Context, actor model.Actor, id string) (*model.Order, map[string]bool, error) {
			if actor.UserID != 7 {
				return nil, nil, domainErrors.ErrForbidden
			}
			return &orders[0], map[string]bool{"p1": true}, nil
		},
	})

	resp := performRequest(t, http.MethodGet, "/api/orders", "/api/orders", handler.List, asCustomer(7), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	list := decode[[]dto.OrderSummaryResponse](t, resp)
	if len(list) != 2 || list[0].ItemCount != 2 || list[0].StatusBadge.Label == "" {
		t.Fatalf("unexpected listing %+v", list)
	}

	resp = performRequest(t, http.MethodGet, "/api/orders/:id", "/api/orders/o1", handler.Get, asCustomer(7), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	detail := decode[dto.OrderResponse](t, resp)
	if detail.ID != "o1" || len(detail.OrderItems) != 1 || detail.OrderItems[0].CanReview {
		t.Fatalf("reviewed product must not be reviewable again: %+v", detail)
	}
	if len(detail.AvailableActions) != 0 {
		t.Fatalf("customers do not see staff actions, got %v", detail.AvailableActions)
	}

	resp = performRequest(t, http.MethodGet, "/api/orders/:id", "/api/orders/o1", handler.Get, asCustomer(8), nil, nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for other customer, got %d", resp.Code)
	}
}

func TestOrderHandlerCancel(t *testing.T) {
	var reason string
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{CancelFn: func(_ context.Context, _ model.Actor, id, r string) (*model.Order, error) {
		reason = r
		if id == "shipped" {
			return nil, domainErrors.ErrInvalidTransition
		}
		return &model.Order{ID: id, Status: model.OrderStatusCancelled, CancelReason: r}, nil
	}})

	resp := performRequest(t, http.MethodPost, "/api/orders/:id/cancel", "/api/orders/o1/cancel", handler.Cancel, asCustomer(7), []byte(`{"reason":"changed my mind"}`), jsonHeaders)
	if resp.Code != http.StatusOK || reason != "changed my mind" {
		t.Fatalf("expected cancel with reason, got %d %q", resp.Code, reason)
	}
	if got := decode[dto.OrderResponse](t, resp); got.Status != string(model.OrderStatusCancelled) {
		t.Fatalf("unexpected status %q", got.Status)
	}

	resp = performRequest(t, http.MethodPost, "/api/orders/:id/cancel", "/api/orders/o1/cancel", handler.Cancel, asCustomer(7), nil, nil)
	if resp.Code != http.StatusOK || reason != "" {
		t.Fatalf("expected cancel without body, got %d %q", resp.Code, reason)
	}

	resp = performRequest(t, http.MethodPost, "/api/orders/:id/cancel", "/api/orders/shipped/cancel", handler.Cancel, asCustomer(7), nil, nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestOrderHandlerCancelUsesCustomerRightsForStaff(t *testing.T) {
	var got model.Actor
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{CancelFn: func(_ context.Context, actor model.Actor, id, _ string) (*model.Order, error) {
		got = actor
		if !actor.IsStaff() {
			return nil, domainErrors.ErrInvalidTransition
		}
		return &model.Order{ID: id, Status: model.OrderStatusCancelled}, nil
	}})

	resp := performRequest(t, http.MethodPost, "/api/orders/:id/cancel", "/api/orders/shipped/cancel", handler.Cancel, asStaff, nil, nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected staff token to get customer rights, got %d", resp.Code)
	}
	if got.Role != model.RoleCustomer || got.UserID == 0 {
		t.Fatalf("expected customer actor with staff user id, got %+v", got)
	}
}

func TestAdminHandlerList(t *testing.T) {
	var gotFilter model.OrderFilter
	handler := NewAdminHandler(testhelpers.AdminFacadeStub{ListFn: func(_ context.Context, actor model.Actor, filter model.OrderFilter) ([]model.Order, error) {
		if !actor.IsStaff() {
			return nil, domainErrors.ErrForbidden
		}
		gotFilter = filter
		return []model.Order{{ID: "o1", Status: model.OrderStatusProcessing}}, nil
	}}, testhelpers.OrderFacadeStub{})

	resp := performRequest(t, http.MethodGet, "/api/admin/orders", "/api/admin/orders?status=Processing&limit=10&offset=20", handler.List, asStaff, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotFilter != (model.OrderFilter{Status: model.OrderStatusProcessing, Limit: 10, Offset: 20}) {
		t.Fatalf("unexpected filter %+v", gotFilter)
	}
	orders := decode[[]dto.OrderResponse](t, resp)
	if len(orders) != 1 || len(orders[0].AvailableActions) == 0 {
		t.Fatalf("expected staff actions, got %+v", orders)
	}

	resp = performRequest(t, http.MethodGet, "/api/admin/orders", "/api/admin/orders?limit=ten", handler.List, asStaff, nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/api/admin/orders", "/api/admin/orders", handler.List, asCustomer(7), nil, nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", resp.Code)
	}
}

func TestAdminHandlerUpdateStatus(t *testing.T) {
	var (
		gotChange   model.StatusChange
		gotExpected model.OrderStatus
	)
	handler := NewAdminHandler(testhelpers.AdminFacadeStub{StatusFn: func(_ context.Context, _ model.Actor, id string, change model.StatusChange, expected model.OrderStatus) (*model.Order, error) {
		gotChange, gotExpected = change, expected
		if expected == model.OrderStatusShipped {
			return nil, domainErrors.ErrConcurrentModification
		}
		order := &model.Order{ID: id, Status: model.OrderStatusProcessing}
		order.StatusHistory = []model.StatusEntry{{Status: model.OrderStatusProcessing}}
		if err := order.ApplyStatus(change); err != nil {
			return nil, err
		}
		return order, nil
	}}, testhelpers.OrderFacadeStub{})

	body := []byte(`{"newStatus":"Shipped","note":"handed to courier","expectedStatus":"Processing","trackingNumber":"TRK1"}`)
	resp := performRequest(t, http.MethodPut, "/api/admin/orders/:id/status", "/api/admin/orders/o1/status", handler.UpdateStatus, asStaff, body, jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if gotChange.To != model.OrderStatusShipped || gotChange.TrackingNumber != "TRK1" || gotExpected != model.OrderStatusProcessing {
		t.Fatalf("unexpected change %+v expected=%q", gotChange, gotExpected)
	}
	got := decode[dto.StatusUpdateResponse](t, resp)
	if got.Status != string(model.OrderStatusShipped) || len(got.StatusHistory) != 2 {
		t.Fatalf("unexpected response %+v", got)
	}

	body = []byte(`{"newStatus":"Delivered","expectedStatus":"Shipped"}`)
	resp = performRequest(t, http.MethodPut, "/api/admin/orders/:id/status", "/api/admin/orders/o1/status", handler.UpdateStatus, asStaff, body, jsonHeaders)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for stale status, got %d", resp.Code)
	}

	body = []byte(`{"newStatus":"Processing"}`)
	resp = performRequest(t, http.MethodPut, "/api/admin/orders/:id/status", "/api/admin/orders/o1/status", handler.UpdateStatus, asStaff, body, jsonHeaders)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for transition to the same status, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodPut, "/api/admin/orders/:id/status", "/api/admin/orders/o1/status", handler.UpdateStatus, asStaff, []byte(`{}`), jsonHeaders)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without new status, got %d", resp.Code)
	}
}

func TestAdminHandlerPaymentAndCancel(t *testing.T) {
	handler := NewAdminHandler(testhelpers.AdminFacadeStub{}, testhelpers.OrderFacadeStub{})

	resp := performRequest(t, http.MethodPut, "/api/admin/orders/:id/payment", "/api/admin/orders/o1/payment", handler.UpdatePayment, asStaff, []byte(`{"isPaid":true}`), jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := decode[dto.PaymentUpdateResponse](t, resp); !got.IsPaid {
		t.Fatalf("expected paid, got %+v", got)
	}

	resp = performRequest(t, http.MethodPut, "/api/admin/orders/:id/payment", "/api/admin/orders/o1/payment", handler.UpdatePayment, asStaff, []byte(`{}`), jsonHeaders)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without isPaid, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/api/admin/orders/:id", "/api/admin/orders/o1", handler.Get, asStaff, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodPost, "/api/admin/orders/:id/cancel", "/api/admin/orders/o1/cancel", handler.Cancel, asStaff, []byte(`{"reason":"out of stock"}`), jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := decode[dto.OrderResponse](t, resp); got.CancelReason != "out of stock" {
		t.Fatalf("unexpected cancel response %+v", got)
	}
}

func TestHealthHandler(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/health", "/health", NewHealthHandler(testhelpers.HealthFacadeStub{}).Check, nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/health", "/health", NewHealthHandler(testhelpers.HealthFacadeStub{Err: errors.New("redis: down")}).Check, nil, nil, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if got := decode[dto.HealthResponse](t, resp); got.Error != "redis: down" {
		t.Fatalf("unexpected health response %+v", got)
	}
}
