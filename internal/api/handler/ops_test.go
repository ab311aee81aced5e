package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datashowme-me/air-is-matter/internal/api/handler"
	"github.com/datashowme-me/air-is-matter/internal/api/models"
	"github.com/datashowme-me/air-is-matter/internal/provider/resilience"
)

func opsRegistry() *resilience.Registry {
	registry := resilience.NewRegistry()
	registry.Register(resilience.NewClient(resilience.DefaultClientConfig("aqicn")))
	registry.Register(resilience.NewClient(resilience.DefaultClientConfig("open-meteo")))
	return registry
}

func TestHealthCheck(t *testing.T) {
	h := handler.NewOpsHandler("1.2.3", "2024-06-01T00:00:00Z", nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "1.2.3", health.Details["version"])
}

func TestReadinessCheck_HealthyProviders(t *testing.T) {
	h := handler.NewOpsHandler("dev", "", opsRegistry())

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	rec := httptest.NewRecorder()
	h.ReadinessCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestSystemStatus(t *testing.T) {
	registry := opsRegistry()
	registry.RecordSuccess("aqicn")
	registry.RecordFailure("open-meteo", assert.AnError)

	h := handler.NewOpsHandler("dev", "", registry)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	rec := httptest.NewRecorder()
	h.SystemStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Providers, 2)

	byName := make(map[string]models.ProviderStatus)
	for _, p := range status.Providers {
		byName[p.Provider] = p
	}
	require.Contains(t, byName, "aqicn")
	require.Contains(t, byName, "open-meteo")

	assert.Equal(t, models.HealthStatusOK, byName["aqicn"].Status)
	assert.NotNil(t, byName["aqicn"].LastSuccessAt)
	assert.NotNil(t, byName["open-meteo"].LastFailureAt)
	require.NotNil(t, byName["open-meteo"].Message)
	assert.Equal(t, assert.AnError.Error(), *byName["open-meteo"].Message)
}

func TestSystemStatus_NoRegistry(t *testing.T) {
	h := handler.NewOpsHandler("dev", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	rec := httptest.NewRecorder()
	h.SystemStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Empty(t, status.Providers)
}
