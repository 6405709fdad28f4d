package obs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestID_PropagatesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	mw := Middleware{}
	r.Use(mw.RequestID(), mw.LoggerMiddleware())
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestReadyz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := HealthHandlers{Checks: map[string]func(context.Context) error{"mongo": func(context.Context) error { return nil }}}
	broken := HealthHandlers{Checks: map[string]func(context.Context) error{"redis": func(context.Context) error { return errors.New("refused") }}}

	r := gin.New()
	r.GET("/ok", healthy.Readyz)
	r.GET("/bad", broken.Readyz)
	r.GET("/livez", broken.Livez)

	for path, want := range map[string]int{"/ok": http.StatusOK, "/bad": http.StatusServiceUnavailable, "/livez": http.StatusOK} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}
