package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sifan077/tinylink/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_Addr(t *testing.T) {
	assert.Equal(t, ":9090", NewServer(config.PrometheusConfig{}, nil, nil).Addr())
	assert.Equal(t, ":9464", NewServer(config.PrometheusConfig{Port: 9464}, nil, nil).Addr())
}

func TestServer_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	redirects := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tinylink_test_redirects_total",
		Help: "test counter",
	})
	reg.MustRegister(redirects)
	redirects.Add(3)

	srv := NewServer(config.PrometheusConfig{}, reg, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tinylink_test_redirects_total 3")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	srv := NewServer(config.PrometheusConfig{}, nil, nil)
	assert.NoError(t, srv.Shutdown(context.Background()))
}
