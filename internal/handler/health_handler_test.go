package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conicore/internal/domain"
	"conicore/internal/engine"
)

func healthRouter(registry *engine.Registry) *gin.Engine {
	h := NewHealthHandler(registry, 1)
	r := gin.New()
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
	return r
}

func TestLiveness(t *testing.T) {
	r := healthRouter(engine.NewRegistryFrom(nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestReadinessProbesEngines(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer healthy.Close()

	sick := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer sick.Close()

	registry := engine.NewRegistryFrom([]engine.ProviderDescriptor{
		{ID: "hunyuan", Kind: domain.TaskOCR, Shape: engine.ShapePaddleREST, Endpoint: healthy.URL, Languages: []string{"*"}, HealthPath: "/health"},
		{ID: "paddle", Kind: domain.TaskOCR, Shape: engine.ShapePaddleREST, Endpoint: sick.URL, Languages: []string{"*"}, HealthPath: "/health"},
		{ID: "gone", Kind: domain.TaskOCR, Shape: engine.ShapePaddleREST, Endpoint: "http://127.0.0.1:1", Languages: []string{"*"}, HealthPath: "/health"},
		{ID: "noprobe", Kind: domain.TaskOCR, Shape: engine.ShapePaddleREST, Endpoint: "http://x", Languages: []string{"*"}},
	})

	r := healthRouter(registry)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, w.Code, "readiness stays 200 with engines down")
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])

	engines := body["engines"].(map[string]interface{})
	assert.Equal(t, "healthy", engines["hunyuan"])
	assert.Equal(t, "unhealthy", engines["paddle"])
	assert.Equal(t, "unreachable", engines["gone"])
	assert.NotContains(t, engines, "noprobe", "engines without a health path are not probed")
}
