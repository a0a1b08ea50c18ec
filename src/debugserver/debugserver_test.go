package debugserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FedeDP/plugins/src/cms"
	"github.com/FedeDP/plugins/src/ppme"
	"github.com/FedeDP/plugins/src/profile"
	"github.com/FedeDP/plugins/src/sketchbank"
)

func testBank() *sketchbank.Bank {
	entry := &sketchbank.Entry{
		Sketch:     cms.NewWithDW(3, 64),
		Profile:    profile.Parse("%proc.exe"),
		EventCodes: map[ppme.Code]struct{}{ppme.Execve: {}},
	}
	return sketchbank.New([]*sketchbank.Entry{entry})
}

func TestHealthcheckOK(t *testing.T) {
	s := New(":0", prometheus.NewRegistry(), testBank())
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthcheckFail(t *testing.T) {
	s := New(":0", prometheus.NewRegistry(), testBank())
	s.HealthCheckFail()
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSketchesListing(t *testing.T) {
	s := New(":0", prometheus.NewRegistry(), testBank())
	req := httptest.NewRequest(http.MethodGet, "/sketches", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"depth":3`)
	assert.Contains(t, rec.Body.String(), `"profile":"%proc.exe"`)
}

func TestEstimateEndpoint(t *testing.T) {
	bank := testBank()
	entry, err := bank.Get(0)
	require.NoError(t, err)
	entry.Sketch.Update([]byte("/bin/sh"), 7)

	s := New(":0", prometheus.NewRegistry(), bank)
	req := httptest.NewRequest(http.MethodGet, "/sketches/0/estimate?fp=/bin/sh", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7\n", rec.Body.String())
}

func TestEstimateEndpointOutOfBounds(t *testing.T) {
	s := New(":0", prometheus.NewRegistry(), testBank())
	req := httptest.NewRequest(http.MethodGet, "/sketches/5/estimate?fp=x", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
