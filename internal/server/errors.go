package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/autoparts/internal/auth/domain"
	"github.com/smallbiznis/autoparts/internal/authctx"
	"github.com/smallbiznis/autoparts/internal/authorization"
	cartdomain "github.com/smallbiznis/autoparts/internal/cart/domain"
	catalogdomain "github.com/smallbiznis/autoparts/internal/catalog/domain"
	commentdomain "github.com/smallbiznis/autoparts/internal/comment/domain"
	favoritedomain "github.com/smallbiznis/autoparts/internal/favorite/domain"
	orderdomain "github.com/smallbiznis/autoparts/internal/order/domain"
	productdomain "github.com/smallbiznis/autoparts/internal/product/domain"
	promotiondomain "github.com/smallbiznis/autoparts/internal/promotion/domain"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

// StockDetail describes the shortfall behind an insufficient_stock response.
type StockDetail struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
	Stock   *StockDetail      `json:"stock,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var stockErr *cartdomain.StockError
	if errors.As(err, &stockErr) {
		return http.StatusConflict, errorPayload{
			Type:    "insufficient_stock",
			Message: "insufficient stock",
			Stock: &StockDetail{
				ProductID: snowflake.ID(stockErr.ProductID).String(),
				Requested: stockErr.Requested,
				Available: stockErr.Available,
			},
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, commentdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, cartdomain.ErrInsufficientStock):
		return http.StatusConflict, errorPayload{
			Type:    "insufficient_stock",
			Message: "insufficient stock",
		}
	case errors.Is(err, orderdomain.ErrStatusTransition):
		return http.StatusConflict, errorPayload{
			Type:    "invalid_status_transition",
			Message: "order status cannot change from its current state",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the payload type and the most specific code for
// the request log line.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authctx.ErrMissingActor),
		errors.Is(err, authorization.ErrInvalidActor),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, productdomain.ErrDuplicateSKU),
		errors.Is(err, cartdomain.ErrConflict),
		errors.Is(err, favoritedomain.ErrConflict):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authdomain.ErrInvalidEmail),
		errors.Is(err, authdomain.ErrWeakPassword),
		errors.Is(err, authorization.ErrInvalidObject),
		errors.Is(err, authorization.ErrInvalidAction),
		errors.Is(err, orderdomain.ErrEmptyCart):
		return true
	case isCatalogValidationError(err),
		isProductValidationError(err),
		isPromotionValidationError(err),
		isCartValidationError(err),
		isOrderValidationError(err),
		isSyncValidationError(err),
		isSocialValidationError(err):
		return true
	default:
		return false
	}
}

func isCatalogValidationError(err error) bool {
	switch {
	case errors.Is(err, catalogdomain.ErrInvalidID),
		errors.Is(err, catalogdomain.ErrInvalidName),
		errors.Is(err, catalogdomain.ErrInvalidYearRange),
		errors.Is(err, catalogdomain.ErrInvalidVariants),
		errors.Is(err, catalogdomain.ErrInvalidParent),
		errors.Is(err, catalogdomain.ErrInvalidBrand):
		return true
	default:
		return false
	}
}

func isProductValidationError(err error) bool {
	switch {
	case errors.Is(err, productdomain.ErrInvalidID),
		errors.Is(err, productdomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidSKU),
		errors.Is(err, productdomain.ErrInvalidPrice),
		errors.Is(err, productdomain.ErrInvalidStock),
		errors.Is(err, productdomain.ErrInvalidCursor),
		errors.Is(err, productdomain.ErrInvalidCategory),
		errors.Is(err, productdomain.ErrInvalidBrand),
		errors.Is(err, productdomain.ErrInvalidCarModel):
		return true
	default:
		return false
	}
}

func isPromotionValidationError(err error) bool {
	switch {
	case errors.Is(err, promotiondomain.ErrInvalidID),
		errors.Is(err, promotiondomain.ErrInvalidName),
		errors.Is(err, promotiondomain.ErrInvalidDiscount),
		errors.Is(err, promotiondomain.ErrInvalidType),
		errors.Is(err, promotiondomain.ErrInvalidTarget):
		return true
	default:
		return false
	}
}

func isCartValidationError(err error) bool {
	switch {
	case errors.Is(err, cartdomain.ErrInvalidID),
		errors.Is(err, cartdomain.ErrInvalidQuantity),
		errors.Is(err, cartdomain.ErrInvalidDiscount),
		errors.Is(err, cartdomain.ErrInvalidBundle):
		return true
	default:
		return false
	}
}

func isOrderValidationError(err error) bool {
	switch {
	case errors.Is(err, orderdomain.ErrInvalidID),
		errors.Is(err, orderdomain.ErrInvalidStatus),
		errors.Is(err, orderdomain.ErrInvalidAddress),
		errors.Is(err, orderdomain.ErrInvalidCursor):
		return true
	default:
		return false
	}
}

func isSyncValidationError(err error) bool {
	switch {
	case errors.Is(err, syncdomain.ErrInvalidTable),
		errors.Is(err, syncdomain.ErrInvalidAction),
		errors.Is(err, syncdomain.ErrInvalidRecord),
		errors.Is(err, syncdomain.ErrInvalidWatermark):
		return true
	default:
		return false
	}
}

func isSocialValidationError(err error) bool {
	switch {
	case errors.Is(err, favoritedomain.ErrInvalidID),
		errors.Is(err, commentdomain.ErrInvalidID),
		errors.Is(err, commentdomain.ErrInvalidText),
		errors.Is(err, commentdomain.ErrInvalidRating):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, promotiondomain.ErrNotFound),
		errors.Is(err, cartdomain.ErrProductNotFound),
		errors.Is(err, cartdomain.ErrItemNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, favoritedomain.ErrProductNotFound),
		errors.Is(err, commentdomain.ErrProductNotFound),
		errors.Is(err, commentdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	switch code {
	case "weak_password":
		return "password"
	case "empty_cart":
		return "cart"
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "empty_cart":
		return "cart is empty"
	case "weak_password":
		return "password is too short"
	default:
		return "invalid value"
	}
}
