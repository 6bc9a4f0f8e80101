package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for request validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
)

// Authentication and account error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeTokenRevoked is used when the auth token has been revoked
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"
	// ErrCodeInvalidCredentials is used when login credentials do not match
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	// ErrCodeAccountLocked is used when the account is locked after failed logins
	ErrCodeAccountLocked = "ERR_ACCOUNT_LOCKED"
	// ErrCodeAccountInactive is used when the account cannot sign in in its current status
	ErrCodeAccountInactive = "ERR_ACCOUNT_INACTIVE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeInsufficientStock is used when product stock cannot cover the order
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	// ErrCodeProductNotAvailable is used when ordering a product that is not published
	ErrCodeProductNotAvailable = "ERR_PRODUCT_NOT_AVAILABLE"
	// ErrCodeOrderNotPending is used for operations that require a pending order
	ErrCodeOrderNotPending = "ERR_ORDER_NOT_PENDING"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for semantically invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodePayloadTooLarge is used when the request body exceeds the limit
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManyRequests is an alias for rate limiting
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// Payment error codes
const (
	// ErrCodePaymentGateway is used when the payment provider call fails
	ErrCodePaymentGateway = "ERR_PAYMENT_GATEWAY"
	// ErrCodeWebhookInvalid is used when a webhook signature does not verify
	ErrCodeWebhookInvalid = "ERR_WEBHOOK_INVALID"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 422 Unprocessable Entity
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeValidationRequired: http.StatusUnprocessableEntity,
	ErrCodeValidationFormat:   http.StatusUnprocessableEntity,
	ErrCodeValidationRange:    http.StatusUnprocessableEntity,
	ErrCodeValidationLength:   http.StatusUnprocessableEntity,

	// Auth errors
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeAccountLocked:      http.StatusForbidden,
	ErrCodeAccountInactive:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:        http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:   http.StatusUnprocessableEntity,
	ErrCodeProductNotAvailable: http.StatusUnprocessableEntity,
	ErrCodeOrderNotPending:     http.StatusUnprocessableEntity,

	// Input errors: malformed requests are 400, semantic rejections 422
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusUnprocessableEntity,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,

	// Payment errors
	ErrCodePaymentGateway: http.StatusBadGateway,
	ErrCodeWebhookInvalid: http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Codes not in the registry are classified by their naming convention;
// anything unrecognized falls back to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return statusFromShape(code)
}

// statusFromShape derives a status from the naming convention of granular
// domain codes (CATEGORY_IN_USE, USERNAME_TAKEN, ORDER_NOT_PAID, ...) so
// new codes get a sensible status without registry churn.
func statusFromShape(code string) int {
	c := strings.TrimPrefix(code, "ERR_")
	switch {
	case strings.HasSuffix(c, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasSuffix(c, "_EXISTS"),
		strings.HasSuffix(c, "_TAKEN"),
		strings.HasSuffix(c, "_IN_USE"),
		strings.HasPrefix(c, "DUPLICATE_"),
		strings.HasPrefix(c, "ALREADY_"):
		return http.StatusConflict
	case strings.HasPrefix(c, "TOKEN_"):
		return http.StatusUnauthorized
	case strings.HasPrefix(c, "INVALID_"),
		strings.HasPrefix(c, "TOO_MANY_"),
		strings.HasPrefix(c, "NO_"),
		strings.HasSuffix(c, "_REQUIRED"),
		strings.HasSuffix(c, "_MISMATCH"),
		strings.HasSuffix(c, "_EXCEEDED"),
		strings.HasSuffix(c, "_TOO_LARGE"),
		strings.HasSuffix(c, "_PROTECTED"),
		strings.HasSuffix(c, "_RESERVED"),
		strings.HasSuffix(c, "_INACTIVE"),
		strings.HasSuffix(c, "_ARCHIVED"),
		strings.Contains(c, "_NOT_"):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// LegacyErrorCodeMapping maps domain error codes to standardized codes
// where the two differ by more than the ERR_ prefix
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"UNAUTHORIZED":          ErrCodeUnauthorized,
	"FORBIDDEN":             ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":  ErrCodeConcurrencyConflict,
	"OPTIMISTIC_LOCK_ERROR": ErrCodeConcurrencyConflict,
	"INSUFFICIENT_STOCK":    ErrCodeInsufficientStock,
	"VALIDATION_ERROR":      ErrCodeValidation,
	"VALIDATION_ERRORS":     ErrCodeValidation,
	"BAD_REQUEST":           ErrCodeBadRequest,
	"INTERNAL_ERROR":        ErrCodeInternal,
	"DB_ERROR":              ErrCodeInternal,
	"ACCOUNT_PENDING":       ErrCodeAccountInactive,
	"ACCOUNT_DEACTIVATED":   ErrCodeAccountInactive,
	"USER_DEACTIVATED":      ErrCodeAccountInactive,
	"TOKEN_ERROR":           ErrCodeTokenInvalid,
	"TOKEN_MAX_REFRESH":     ErrCodeTokenExpired,
	// Authorization failures collapse to FORBIDDEN so responses don't
	// reveal what the caller almost had access to
	"ORDER_ACCESS_DENIED":   ErrCodeForbidden,
	"NOT_PRODUCT_OWNER":     ErrCodeForbidden,
	"PAYMENT_GATEWAY_ERROR": ErrCodePaymentGateway,
	"WEBHOOK_INVALID":       ErrCodeWebhookInvalid,
}

// NormalizeErrorCode converts a domain error code to the standardized
// ERR_* format. Codes already in that format pass through unchanged;
// granular codes without a mapping keep their name under the ERR_ prefix.
func NormalizeErrorCode(code string) string {
	if code == "" {
		return ErrCodeUnknown
	}
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}
