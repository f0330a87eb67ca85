package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// IdempotencyKeyHeader deduplicates retried order submissions.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler manages customer order endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/orders. A replayed idempotency key answers 200 with
// the order created by the first request.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, created, err := h.facade.SubmitOrder(c.Request.Context(), model.OrderSubmission{
		UserID:  CurrentUserID(c),
		Items:   req.OrderItems,
		Address: req.ShippingAddress,
		Payment: model.PaymentSelection{
			Method:  model.PaymentMethod(req.PaymentMethod),
			Details: req.PaymentDetails,
		},
		ClientTotals:   req.ClientTotals(),
		IdempotencyKey: strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, dto.CreateOrderResponse{OrderID: order.ID, Status: string(order.Status)})
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.facade.MyOrders(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderSummaries(orders))
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	actor := CurrentActor(c)
	order, reviewed, err := h.facade.Order(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(order, reviewed, actor.IsStaff()))
}

// Cancel handles POST /api/orders/:id/cancel. Staff are treated as the order
// owner here; staff cancellation lives under /api/admin.
func (h *OrderHandler) Cancel(c *gin.Context) {
	var req dto.CancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	actor := CurrentActor(c)
	actor.Role = model.RoleCustomer
	order, err := h.facade.CancelOrder(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(order, nil, false))
}
