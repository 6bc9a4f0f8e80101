package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/moa/backend/internal/interfaces/http/dto"
)

// Keys for request ID propagation. RequestIDKey is the gin context key set by
// the RequestID middleware; RequestIDHeader is the wire header clients and the
// response echo use.
const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// SetupValidator makes gin's binding validator report fields by their wire
// names, so error details say "unit_price", not "UnitPrice".
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldDisplayName)
	}
}

func fieldDisplayName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" {
		name, _, _ = strings.Cut(fld.Tag.Get("form"), ",")
	}
	if name == "-" {
		return ""
	}
	return name
}

// FormatValidationErrors builds the canonical validation response. Binding
// failures that are not field errors (malformed JSON, say) get the envelope
// with no details.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details = make([]dto.ValidationDetail, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, dto.ValidationDetail{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
	}

	return dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	)
}

// HandleValidationError writes a 422 response with per-field details.
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity,
		FormatValidationErrors(err, requestIDFromContext(c)))
}

// Messages for tags whose text carries no parameter.
var plainTagMessages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"uuid":     "Invalid UUID format",
	"url":      "Invalid URL format",
	"numeric":  "Must be numeric",
	"alphanum": "Must be alphanumeric",
	"alpha":    "Must contain only letters",
}

var comparisonPhrases = map[string]string{
	"gte": "greater than or equal to",
	"lte": "less than or equal to",
	"gt":  "greater than",
	"lt":  "less than",
}

func validationMessage(e validator.FieldError) string {
	if msg, ok := plainTagMessages[e.Tag()]; ok {
		return msg
	}
	if phrase, ok := comparisonPhrases[e.Tag()]; ok {
		return "Must be " + phrase + " " + e.Param()
	}

	switch e.Tag() {
	case "min":
		return sizeMessage(e, "at least")
	case "max":
		return sizeMessage(e, "at most")
	case "len":
		return sizeMessage(e, "exactly")
	case "oneof":
		return "Must be one of: " + e.Param()
	}
	return "Invalid value"
}

// sizeMessage phrases min/max/len bounds, counting characters for strings
// and plain magnitude for numbers.
func sizeMessage(e validator.FieldError, bound string) string {
	msg := "Must be " + bound + " " + e.Param()
	if e.Type().Kind() == reflect.String {
		msg += " characters"
	}
	return msg
}
