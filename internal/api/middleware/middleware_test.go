package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/timmy/gamedata/internal/config"
	"github.com/timmy/gamedata/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.CORSConfig
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{name: "allow all", cfg: config.CORSConfig{AllowAllOrigins: true}, method: http.MethodGet, origin: "http://a.test", wantOrigin: "*", wantStatus: http.StatusOK},
		{name: "listed origin", cfg: config.CORSConfig{AllowedOrigins: []string{"http://a.test"}}, method: http.MethodGet, origin: "http://a.test", wantOrigin: "http://a.test", wantStatus: http.StatusOK},
		{name: "unlisted origin", cfg: config.CORSConfig{AllowedOrigins: []string{"http://a.test"}}, method: http.MethodGet, origin: "http://b.test", wantOrigin: "", wantStatus: http.StatusOK},
		{name: "preflight", cfg: config.CORSConfig{AllowAllOrigins: true}, method: http.MethodOptions, origin: "http://a.test", wantOrigin: "*", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tt.cfg))
			r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
			r.OPTIONS("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestLoggerMiddleware_RequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: "info", Format: "json", Output: &buf, ServiceName: "test"})

	r := gin.New()
	r.Use(LoggerMiddleware(log), Metrics())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, logger.GetRequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())
	assert.Contains(t, buf.String(), "Request completed")

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc-123", w.Body.String())
}
