package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Transport (TRN) ----

func ErrMethodNotAllowed() *AppError {
	return New("TRN_001", "Method not allowed", http.StatusMethodNotAllowed)
}

// ---- Authentication (AUTH) ----

func ErrInvalidAPIKey() *AppError {
	return New("AUTH_001", "Invalid API key", http.StatusUnauthorized)
}

// ErrComplianceNotApproved is returned when a live key is valid but the
// account has not cleared compliance review. Kept distinct from AUTH_001
// so merchants can tell "bad key" from "not yet compliant".
func ErrComplianceNotApproved() *AppError {
	return New("AUTH_002", "Live mode requires an approved compliance record", http.StatusUnauthorized)
}

func ErrAccountSuspended() *AppError {
	return New("AUTH_003", "Account is suspended", http.StatusUnauthorized)
}

// ---- Charge validation (CHG) ----

func ErrAmountTooLow(floor int64) *AppError {
	return New("CHG_001", fmt.Sprintf("Amount must be at least %d cents (KSh %d)", floor, floor/100), http.StatusBadRequest)
}

func ErrPhoneRequired() *AppError {
	return New("CHG_002", "Phone number is required", http.StatusBadRequest)
}

func ErrInvalidPhone() *AppError {
	return New("CHG_003", "Invalid phone number format", http.StatusBadRequest)
}

func ErrUnsupportedRail() *AppError {
	return New("CHG_004", "Unsupported phone number. Use Safaricom or Airtel numbers.", http.StatusBadRequest)
}

func ErrTransactionNotFound() *AppError {
	return New("CHG_005", "Transaction not found", http.StatusNotFound)
}

// Validation returns a generic 400 for malformed request bodies.
func Validation(message string) *AppError {
	return New("CHG_000", message, http.StatusBadRequest)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & infrastructure (SYS) ----

func ErrPersistence(err error) *AppError {
	return Wrap("SYS_001", "Failed to create transaction", http.StatusInternalServerError, err)
}

// InternalError wraps anything uncaught as a generic 500.
func InternalError(err error) *AppError {
	return Wrap("SYS_002", "Internal server error", http.StatusInternalServerError, err)
}
