package handler

import "github.com/moa/backend/internal/interfaces/http/dto"

// The types below exist for the OpenAPI generator: runtime responses are
// built by the dto package, but swag needs concrete generic instantiations
// to document each endpoint's envelope.

// APIResponse is the standard envelope with a typed data field.
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the envelope of a failed request.
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// CountData is the payload of counting endpoints such as GET /users/stats/count.
// @Description Count data
type CountData struct {
	Count int64 `json:"count"`
}
