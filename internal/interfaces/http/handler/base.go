package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/warehouse/stocksync/internal/application/ordersync"
	"github.com/warehouse/stocksync/internal/application/warehouse"
	"github.com/warehouse/stocksync/internal/domain/inventory"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	domainsync "github.com/warehouse/stocksync/internal/domain/ordersync"
	"github.com/warehouse/stocksync/internal/domain/shared"
	"github.com/warehouse/stocksync/internal/infrastructure/ecommerce"
	"github.com/warehouse/stocksync/internal/infrastructure/logger"
	"github.com/warehouse/stocksync/internal/infrastructure/scheduler"
	"github.com/warehouse/stocksync/internal/interfaces/http/dto"
	"github.com/warehouse/stocksync/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := middleware.GetRequestID(c); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// BindJSON decodes and validates the request body. It writes the error
// response itself and returns false when the body is unusable.
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]dto.ValidationDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, dto.ValidationDetail{
				Field:   strings.ToLower(fe.Field()),
				Message: validationMessage(fe),
			})
		}
		h.ValidationError(c, details)
		return false
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// HandleDomainError converts domain errors to HTTP responses
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	domainErr := toDomainError(err)
	if domainErr == nil {
		logger.FromContext(c.Request.Context()).Error("Unhandled error",
			zap.String("path", c.Request.URL.Path), zap.Error(err))
		h.InternalError(c, "An unexpected error occurred")
		return
	}
	code := dto.NormalizeErrorCode(domainErr.Code)
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, getRequestID(c)))
}

// toDomainError maps package sentinels onto shared domain errors. The
// original message is kept so platform rejection text reaches the operator.
func toDomainError(err error) *shared.DomainError {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	msg := err.Error()
	switch {
	case errors.Is(err, marketplace.ErrUnknownPlatform):
		return shared.NewDomainError(dto.ErrCodeUnknownPlatform, msg)
	case errors.Is(err, inventory.ErrItemNotFound), errors.Is(err, inventory.ErrAliasNotFound):
		return shared.ErrNotFound.WithMessage(msg)
	case errors.Is(err, inventory.ErrNegativeQuantity),
		errors.Is(err, inventory.ErrInvalidCell),
		errors.Is(err, inventory.ErrInvalidItemID),
		errors.Is(err, inventory.ErrInvalidAlias),
		errors.Is(err, domainsync.ErrInvalidOrderID):
		return shared.ErrInvalidInput.WithMessage(msg)
	case errors.Is(err, inventory.ErrAliasAlreadyUsed):
		return shared.ErrAlreadyExists.WithMessage(msg)
	case errors.Is(err, ecommerce.ErrInvalidWebhookPayload):
		return shared.NewDomainError(dto.ErrCodeInvalidJSON, msg)
	case errors.Is(err, scheduler.ErrRunInProgress), errors.Is(err, domainsync.ErrOrderInFlight):
		return shared.ErrLocked.WithMessage(msg)
	case errors.Is(err, warehouse.ErrNoWarehouse):
		return shared.ErrNotConfigured.WithMessage(msg)
	case errors.Is(err, warehouse.ErrSampleFailed):
		return shared.ErrUpstreamUnavailable.WithMessage(msg)
	case errors.Is(err, ordersync.ErrStoreFailure):
		return nil
	}

	switch marketplace.Classify(err) {
	case marketplace.ErrorKindConfiguration:
		return shared.ErrNotConfigured.WithMessage(msg)
	case marketplace.ErrorKindNetwork:
		return shared.ErrUpstreamUnavailable.WithMessage(msg)
	case marketplace.ErrorKindRejection:
		return shared.ErrUpstreamRejected.WithMessage(msg)
	case marketplace.ErrorKindInvalidResponse:
		return shared.NewDomainError(dto.ErrCodeUpstreamInvalid, msg)
	case marketplace.ErrorKindUnsupported:
		return shared.ErrUnsupported.WithMessage(msg)
	}
	return nil
}

// parsePlatforms validates platform codes and removes duplicates
func parsePlatforms(codes []string) ([]marketplace.Platform, error) {
	platforms := make([]marketplace.Platform, 0, len(codes))
	seen := make(map[marketplace.Platform]struct{}, len(codes))
	for _, code := range codes {
		p, err := marketplace.ParsePlatform(code)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		platforms = append(platforms, p)
	}
	return platforms, nil
}
