package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// DeviceIDHeader identifies the client device owning a cart.
const DeviceIDHeader = "X-Device-ID"

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

// CurrentActor returns authenticated caller with role.
func CurrentActor(c *gin.Context) model.Actor {
	actor := model.Actor{UserID: CurrentUserID(c), Role: model.RoleCustomer}
	if val, ok := c.Get(middleware.RoleContextKey); ok {
		if role, ok := val.(model.Role); ok && role != "" {
			actor.Role = role
		}
	}
	return actor
}

// CurrentOwner returns cart owner of the request.
func CurrentOwner(c *gin.Context) model.CartOwner {
	return model.CartOwner{UserID: CurrentUserID(c), DeviceID: strings.TrimSpace(c.GetHeader(DeviceIDHeader))}
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request: " + err.Error(), Code: "bad_request"})
}

// respondError maps domain errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var validation *domainErrors.ValidationError
	switch {
	case errors.As(err, &validation):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "validation failed", Code: "validation", Fields: validation.Fields})
	case errors.Is(err, domainErrors.ErrValidation):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error(), Code: "validation"})
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials", Code: "unauthorized"})
	case errors.Is(err, domainErrors.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Error: "forbidden", Code: "forbidden"})
	case errors.Is(err, domainErrors.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, dto.ErrorResponse{Error: "not found", Code: "not_found"})
	case errors.Is(err, domainErrors.ErrInvalidTransition):
		c.AbortWithStatusJSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Code: "invalid_transition"})
	case errors.Is(err, domainErrors.ErrConcurrentModification):
		c.AbortWithStatusJSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Code: "concurrent_modification"})
	case errors.Is(err, domainErrors.ErrSubmissionInFlight):
		c.AbortWithStatusJSON(http.StatusConflict, dto.ErrorResponse{Error: "order submission already in progress", Code: "submission_in_flight"})
	case errors.Is(err, domainErrors.ErrIdempotencyMismatch):
		c.AbortWithStatusJSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Code: "idempotency_mismatch"})
	case errors.Is(err, domainErrors.ErrAlreadyExists):
		c.AbortWithStatusJSON(http.StatusConflict, dto.ErrorResponse{Error: "already exists", Code: "conflict"})
	case errors.Is(err, domainErrors.ErrSubmissionFailure):
		c.AbortWithStatusJSON(http.StatusBadGateway, dto.ErrorResponse{Error: "order could not be placed; please try again", Code: "submission_failure"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error", Code: "internal"})
	}
}
