package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// AdminHandler serves back office order endpoints. Routes are expected behind
// AuthRequired and StaffOnly; use cases check the role again.
type AdminHandler struct {
	admin  AdminFacade
	orders OrderFacade
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(admin AdminFacade, orders OrderFacade) *AdminHandler {
	return &AdminHandler{admin: admin, orders: orders}
}

// List handles GET /api/admin/orders?status=&limit=&offset=.
func (h *AdminHandler) List(c *gin.Context) {
	filter := model.OrderFilter{Status: model.OrderStatus(c.Query("status"))}
	var err error
	if v := c.Query("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil {
			badRequest(c, err)
			return
		}
	}
	if v := c.Query("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil {
			badRequest(c, err)
			return
		}
	}

	orders, err := h.admin.AllOrders(c.Request.Context(), CurrentActor(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, dto.NewOrderResponse(&orders[i], nil, true))
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/admin/orders/:id.
func (h *AdminHandler) Get(c *gin.Context) {
	order, _, err := h.orders.Order(c.Request.Context(), CurrentActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(order, nil, true))
}

// UpdateStatus handles PUT /api/admin/orders/:id/status.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req dto.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	change := model.StatusChange{
		To:                model.OrderStatus(req.NewStatus),
		Note:              req.Note,
		TrackingNumber:    req.TrackingNumber,
		EstimatedDelivery: req.EstimatedDelivery,
	}
	order, err := h.admin.UpdateOrderStatus(c.Request.Context(), CurrentActor(c), c.Param("id"), change, model.OrderStatus(req.ExpectedStatus))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusUpdateResponse{Status: string(order.Status), StatusHistory: dto.NewTimeline(order)})
}

// UpdatePayment handles PUT /api/admin/orders/:id/payment.
func (h *AdminHandler) UpdatePayment(c *gin.Context) {
	var req dto.PaymentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.admin.UpdateOrderPayment(c.Request.Context(), CurrentActor(c), c.Param("id"), *req.IsPaid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PaymentUpdateResponse{IsPaid: order.IsPaid, PaidAt: order.PaidAt})
}

// Cancel handles POST /api/admin/orders/:id/cancel.
func (h *AdminHandler) Cancel(c *gin.Context) {
	var req dto.CancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), CurrentActor(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(order, nil, true))
}
