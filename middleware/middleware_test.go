package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"vidsnatch/logger"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins))
	r.Use(Logging(logger.Discard()))
	r.GET("/ping", func(c *gin.Context) {
		if logger.FromContext(c.Request.Context()) == logger.Default() {
			c.String(http.StatusInternalServerError, "no request logger")
			return
		}
		c.String(http.StatusOK, "pong")
	})
	return r
}

func get(r http.Handler, origin, requestID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSAllowsEveryOriginByDefault(t *testing.T) {
	w := get(newRouter(nil), "http://anything.example", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSConfiguredOrigins(t *testing.T) {
	r := newRouter([]string{"http://localhost:3000"})

	w := get(r, "http://localhost:3000", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(r, "chrome-extension://abcdefghijklmnop", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, "http://evil.example", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoggingSetsRequestID(t *testing.T) {
	r := newRouter(nil)

	w := get(r, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	w = get(r, "", "req-123")
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}
