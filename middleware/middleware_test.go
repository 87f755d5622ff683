package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tow-dispatch-api/logging"
	"tow-dispatch-api/metrics"
	"tow-dispatch-api/services"

	"github.com/gin-gonic/gin"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeVerifier map[string]services.Identity

func (f fakeVerifier) Verify(token string) (services.Identity, error) {
	id, ok := f[token]
	if !ok {
		return services.Identity{}, errors.New("bad token")
	}
	return id, nil
}

func newRouter(v TokenVerifier) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthRequired(v), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetIdentity(c).UserID})
	})
	r.GET("/admin", AuthRequired(v), AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := newRouter(fakeVerifier{
		"user":  {UserID: 3, Email: "ann@example.com"},
		"admin": {UserID: 1, Email: "admin@example.com", IsAdmin: true},
	})

	w := get(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	w = get(r, "/me", "forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/me", "user")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcg==")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRequired(t *testing.T) {
	r := newRouter(fakeVerifier{
		"user":  {UserID: 3},
		"admin": {UserID: 1, IsAdmin: true},
	})
	w := get(r, "/admin", "user")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, get(r, "/admin", "admin").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRequestLogSetsID(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLog(logging.NewWithWriter(logging.Config{Level: "info", Format: "json"}, &buf)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/ping", "")
	require.Equal(t, http.StatusOK, w.Code)
	rid := w.Header().Get(RequestIDHeader)
	assert.Len(t, rid, 36)
	assert.Contains(t, buf.String(), rid)
	assert.Contains(t, buf.String(), `"path":"/ping"`)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	m := metrics.New("test")
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	get(r, "/orders/1", "")
	get(r, "/orders/2", "")
	get(r, "/nope", "")

	assert.Equal(t, 2.0, promtest.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/orders/:id", "200")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, promtest.ToFloat64(m.HTTPRequestsInFlight))
}
