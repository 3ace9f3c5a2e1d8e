package middleware

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("disk on fire"))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestCORS_AllowedOrigin(t *testing.T) {
	r := newEngine(CORS("http://localhost:5173"))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Disposition", rr.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORS_Preflight(t *testing.T) {
	r := newEngine(CORS("http://localhost:5173"))

	req := httptest.NewRequest(http.MethodOptions, "/ok", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestCORS_UnknownOriginGetsNoHeaders(t *testing.T) {
	r := newEngine(CORS("http://localhost:5173"))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Origin", "http://elsewhere.test")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ExtraOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , http://b.test")
	r := newEngine(CORS())

	for _, origin := range []string{"http://a.test", "http://b.test"} {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set("Origin", origin)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, origin, rr.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestErrorLogger_LogsHandlerErrors(t *testing.T) {
	buf := captureLog(t)
	r := newEngine(ErrorLogger())

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, buf.String(), "type=handler_error")
	assert.Contains(t, buf.String(), "request_id=req-1")
	assert.Contains(t, buf.String(), `error="disk on fire"`)
}

func TestErrorLogger_RecoversPanics(t *testing.T) {
	buf := captureLog(t)
	r := newEngine(ErrorLogger())

	rr := httptest.NewRecorder()
	require.NotPanics(t, func() {
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/panic", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal Server Error"}`, rr.Body.String())
	assert.Contains(t, buf.String(), "type=panic")
}

func TestErrorLogger_QuietOnSuccess(t *testing.T) {
	buf := captureLog(t)
	r := newEngine(ErrorLogger())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, buf.String())
}
