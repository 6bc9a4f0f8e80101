package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	newRouter := func(limit int64, handler gin.HandlerFunc) *gin.Engine {
		router := gin.New()
		router.Use(BodyLimit(limit))
		router.POST("/avaliacoes", handler)
		router.GET("/avaliacoes", handler)
		return router
	}

	t.Run("declared sizes", func(t *testing.T) {
		tests := []struct {
			name  string
			limit int64
			size  int
			want  int
		}{
			{name: "under the limit", limit: 1024, size: 10, want: http.StatusOK},
			{name: "exactly at the limit", limit: 64, size: 64, want: http.StatusOK},
			{name: "over the limit", limit: 100, size: 200, want: http.StatusRequestEntityTooLarge},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				router := newRouter(tt.limit, okHandler)

				// httptest fills ContentLength from the reader's length.
				body := strings.NewReader(strings.Repeat("x", tt.size))
				w := httptest.NewRecorder()
				router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/avaliacoes", body))

				assert.Equal(t, tt.want, w.Code)
				if tt.want == http.StatusRequestEntityTooLarge {
					assert.Contains(t, w.Body.String(), "ERR_PAYLOAD_TOO_LARGE")
					assert.Contains(t, w.Body.String(), `"success":false`)
				}
			})
		}
	})

	t.Run("bodyless GET passes the tightest limit", func(t *testing.T) {
		router := newRouter(1, okHandler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/avaliacoes", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("undeclared length is caught at read time", func(t *testing.T) {
		router := newRouter(50, func(c *gin.Context) {
			_, err := io.ReadAll(c.Request.Body)
			var tooLarge *http.MaxBytesError
			switch {
			case errors.As(err, &tooLarge):
				c.String(http.StatusRequestEntityTooLarge, "corpo grande demais")
			case err != nil:
				c.String(http.StatusInternalServerError, err.Error())
			default:
				c.String(http.StatusOK, "ok")
			}
		})

		// A chunked upload: no size declared, 100 bytes streamed in.
		req := httptest.NewRequest(http.MethodPost, "/avaliacoes",
			strings.NewReader(strings.Repeat("x", 100)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
