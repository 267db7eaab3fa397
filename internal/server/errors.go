package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/mealplan/internal/audit/domain"
	authdomain "github.com/smallbiznis/mealplan/internal/auth/domain"
	"github.com/smallbiznis/mealplan/internal/authorization"
	paymentdomain "github.com/smallbiznis/mealplan/internal/payment/domain"
	plandomain "github.com/smallbiznis/mealplan/internal/plan/domain"
	subscriptiondomain "github.com/smallbiznis/mealplan/internal/subscription/domain"
	"github.com/smallbiznis/mealplan/internal/validation"
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

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
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
	ErrRateLimited        = errors.New("rate_limited")
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

	if fields, ok := validation.Fields(err); ok {
		out := make([]ValidationError, 0, len(fields))
		for _, f := range fields {
			out = append(out, ValidationError{
				Field:   f.Field,
				Code:    f.Code,
				Message: f.Field + " failed " + f.Code,
			})
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  out,
		}
	}

	message := ruleMessage(err)

	switch {
	case errors.Is(err, subscriptiondomain.ErrCutoffPassed):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "cutoff_violation",
			Message: message,
		}
	case isValidationError(err):
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: message,
			Errors: []ValidationError{
				{
					Field:   validationErrorField(err, code),
					Code:    code,
					Message: message,
				},
			},
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrMissingToken),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, authdomain.ErrTokenExpired),
		errors.Is(err, authdomain.ErrInvalidRole),
		errors.Is(err, authorization.ErrInvalidActor):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, subscriptiondomain.ErrNotOwned):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: message,
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: notFoundMessage(err, message),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err, message),
		}
	case subscriptiondomain.IsInvalidState(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "invalid_state",
			Message: message,
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, paymentdomain.ErrInvalidOrder):
		return http.StatusBadGateway, errorPayload{
			Type:    "payment_gateway_error",
			Message: "payment gateway rejected the order",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, authdomain.ErrNotConfigured),
		errors.Is(err, paymentdomain.ErrProviderUnavailable):
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

// classifyErrorForLog reports the response type and code for request logging.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if rErr, ok := subscriptiondomain.AsRuleError(err); ok {
		code = rErr.Err.Error()
	} else if len(payload.Errors) > 0 {
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

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		subscriptiondomain.IsValidation(err),
		isPlanValidationError(err),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		subscriptiondomain.IsNotFound(err),
		errors.Is(err, plandomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	return errors.Is(err, ErrConflict) ||
		subscriptiondomain.IsConflict(err) ||
		errors.Is(err, plandomain.ErrDuplicateSlug) ||
		errors.Is(err, paymentdomain.ErrDuplicatePayment)
}

func validationErrorCode(err error) string {
	if rErr, ok := subscriptiondomain.AsRuleError(err); ok {
		return rErr.Err.Error()
	}
	for _, sentinel := range []error{
		ErrInvalidRequest,
		plandomain.ErrInvalidID,
		plandomain.ErrInvalidRequest,
		plandomain.ErrDaysExceedValid,
		plandomain.ErrPriceExceedsMRP,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func validationErrorField(err error, code string) string {
	if rErr, ok := subscriptiondomain.AsRuleError(err); ok && rErr.Field != "" {
		return rErr.Field
	}
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

// ruleMessage surfaces the offending value carried by a rule error.
func ruleMessage(err error) string {
	if rErr, ok := subscriptiondomain.AsRuleError(err); ok && rErr.Message != "" {
		return rErr.Message
	}
	switch {
	case errors.Is(err, subscriptiondomain.ErrNotActive):
		return "only active subscriptions can be modified"
	case errors.Is(err, subscriptiondomain.ErrNotPending):
		return "subscription is not awaiting payment"
	case errors.Is(err, subscriptiondomain.ErrNotOwned):
		return "subscription belongs to another user"
	}
	return strings.ReplaceAll(err.Error(), "_", " ")
}

func notFoundMessage(err error, message string) string {
	if _, ok := subscriptiondomain.AsRuleError(err); ok {
		return message
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound) {
		return "not found"
	}
	return message
}

func conflictMessage(err error, message string) string {
	if errors.Is(err, ErrConflict) {
		return "conflict"
	}
	return message
}

func isPlanValidationError(err error) bool {
	return errors.Is(err, plandomain.ErrInvalidID) ||
		errors.Is(err, plandomain.ErrInvalidRequest) ||
		errors.Is(err, plandomain.ErrDaysExceedValid) ||
		errors.Is(err, plandomain.ErrPriceExceedsMRP)
}
