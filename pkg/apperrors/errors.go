package apperrors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode groups application errors by kind.
type ErrorCode string

// AppError is the application-level error carried across service boundaries.
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Domain   string      `json:"domain,omitempty"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Err      error       `json:"-"`
	HTTPCode int         `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, domain, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Domain:   domain,
		Message:  message,
		HTTPCode: httpCode,
	}
}

func Wrap(err error, code ErrorCode, domain, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Domain:   domain,
		Message:  message,
		Err:      err,
		HTTPCode: httpCode,
	}
}

// WithDetails returns a copy carrying extra detail, so the predeclared
// errors below stay immutable.
func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias struct {
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}
	return json.Marshal(&alias{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// --- Auth ---

var (
	ErrInvalidCredentials = New(CodeInvalidCredentials, "auth", "Invalid email or password", http.StatusUnauthorized)
	ErrUnauthorized       = New(CodeUnauthorized, "auth", "Authentication required", http.StatusUnauthorized)
	ErrForbidden          = New(CodeForbidden, "auth", "Access denied", http.StatusForbidden)
	ErrInvalidToken       = New(CodeInvalidToken, "auth", "Invalid or expired token", http.StatusUnauthorized)
	ErrEmailAlreadyExists = New(CodeAlreadyExists, "auth", "Email already in use", http.StatusConflict)
	ErrWeakPassword       = New(CodeValidationFailed, "auth", "Password must be at least 8 characters", http.StatusBadRequest)
)

// --- Validation ---

var ErrValidationFailed = New(CodeValidationFailed, "validation", "Validation failed", http.StatusBadRequest)

// --- Traders & jobs ---

var (
	ErrTraderNotFound  = New(CodeNotFound, "trader", "Trader account not found", http.StatusNotFound)
	ErrProfileNotFound = New(CodeNotFound, "trader", "Trader profile not found", http.StatusNotFound)
	ErrJobNotFound     = New(CodeNotFound, "job", "Job not found", http.StatusNotFound)
)

// --- Billing & entitlement ---

var (
	// ErrUnknownPlanTier rejects tier ids outside basic/pro/elite.
	ErrUnknownPlanTier = New(CodeValidationFailed, "billing", "Unknown subscription tier", http.StatusBadRequest)

	// ErrPaymentDeclined means the payment collaborator declined or the
	// user cancelled the authorization. The operation performed no mutation.
	ErrPaymentDeclined = New(CodePaymentDeclined, "billing", "Payment was not completed", http.StatusPaymentRequired)

	// ErrReferrerNotFound surfaces a missing referrer account on credit
	// grants as a typed failure instead of a logged no-op.
	ErrReferrerNotFound = New(CodeNotFound, "referral", "Referrer account not found", http.StatusNotFound)

	ErrLeadQuotaExhausted = New(CodeLimitExceeded, "entitlement", "Monthly lead quota reached", http.StatusForbidden)
	ErrResponseCapReached = New(CodeLimitExceeded, "entitlement", "Free response limit reached", http.StatusForbidden)
)

// --- Helpers ---

func ValidationError(details interface{}) *AppError {
	return ErrValidationFailed.WithDetails(details)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, "resource", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "internal", "Internal server error", http.StatusInternalServerError)
}

func NewBadRequestError(message string) *AppError {
	return New(CodeValidationFailed, "validation", message, http.StatusBadRequest)
}

func NewUnauthorizedError(message string) *AppError {
	return New(CodeUnauthorized, "auth", message, http.StatusUnauthorized)
}

func NewConflictError(message string) *AppError {
	return New(CodeConflict, "resource", message, http.StatusConflict)
}
