package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	httperr "github.com/healthbridge-lab/healthbridge/internal/core/errors"
	"github.com/healthbridge-lab/healthbridge/internal/store"
	"github.com/healthbridge-lab/healthbridge/internal/store/memory"
)

func lazyOver(backend store.Store) *store.Lazy {
	return store.NewLazy(func() (store.Store, error) { return backend, nil })
}

func TestHealthEndpoint(t *testing.T) {
	s := New("127.0.0.1:0", lazyOver(memory.New()), "release")

	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "healthy")
}

func TestHealthEndpointStoreUnavailable(t *testing.T) {
	handle := store.NewLazy(func() (store.Store, error) {
		return nil, errors.New("connection refused")
	})
	s := New("127.0.0.1:0", handle, "release")

	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestIDGeneratedAndPreserved(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	r.ServeHTTP(w, req)
	require.Equal(t, "fixed-id", w.Header().Get(RequestIDHeader))
}

func TestCapabilityGate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mem := memory.New()
	mem.SetAvailable(false)

	r := gin.New()
	r.Use(CapabilityGate(lazyOver(mem)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNotImplemented, w.Code)
	require.Contains(t, w.Body.String(), httperr.HttpNotSupportedError)

	mem.SetAvailable(true)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
