package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// CheckoutHandler exposes the checkout wizard.
type CheckoutHandler struct {
	facade CheckoutFacade
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade CheckoutFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// State handles GET /api/checkout.
func (h *CheckoutHandler) State(c *gin.Context) {
	view, err := h.facade.Checkout(c.Request.Context(), CurrentOwner(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCheckoutResponse(view))
}

// Shipping handles POST /api/checkout/shipping.
func (h *CheckoutHandler) Shipping(c *gin.Context) {
	var address model.ShippingAddress
	if err := c.ShouldBindJSON(&address); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.facade.SubmitShipping(c.Request.Context(), CurrentOwner(c), address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCheckoutResponse(view))
}

// Payment handles POST /api/checkout/payment.
func (h *CheckoutHandler) Payment(c *gin.Context) {
	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.facade.SelectPayment(c.Request.Context(), CurrentOwner(c), req.Selection())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCheckoutResponse(view))
}

// Back handles POST /api/checkout/back.
func (h *CheckoutHandler) Back(c *gin.Context) {
	var req dto.BackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.facade.CheckoutBack(c.Request.Context(), CurrentOwner(c), model.CheckoutStep(req.Step))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCheckoutResponse(view))
}

// Place handles POST /api/checkout/place.
func (h *CheckoutHandler) Place(c *gin.Context) {
	order, err := h.facade.PlaceOrder(c.Request.Context(), CurrentOwner(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreateOrderResponse{OrderID: order.ID, Status: string(order.Status)})
}

// Success handles GET /api/checkout/success/:orderId. Unknown orders answer
// 404 with a redirect hint to the cart.
func (h *CheckoutHandler) Success(c *gin.Context) {
	order, err := h.facade.OrderSuccess(c.Request.Context(), CurrentOwner(c), c.Param("orderId"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.Header("Location", "/cart")
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(order, nil, false))
}
