package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moa/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects oversized request bodies. Declared sizes are refused
// up front; undeclared (chunked) uploads are capped at read time by
// http.MaxBytesReader, which fails the handler's read once maxBytes have
// streamed in.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			resp := dto.NewErrorResponseWithRequestID(
				dto.ErrCodePayloadTooLarge,
				"Request body exceeds maximum allowed size",
				c.GetString(RequestIDKey),
			)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
