package etl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alstn9213/open-insight/internal/config"
	"github.com/alstn9213/open-insight/internal/resilience"
)

func newTestClient(storeURL, popURL string) *Client {
	c := NewClient(config.IngestConfig{
		StoreAPIURL:      storeURL,
		StoreAPIKey:      "store-key",
		PopulationAPIURL: popURL,
		PopulationAPIKey: "pop-key",
		RequestsPerSec:   1000,
		TimeoutSecs:      5,
	})
	c.retry = resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: 1, MaxBackoff: 1}
	return c
}

func TestClient_FetchStoreFigures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "store-key", r.URL.Query().Get("serviceKey"))
		assert.Equal(t, "1168051000", r.URL.Query().Get("admCode"))
		assert.Equal(t, "cafe", r.URL.Query().Get("category"))
		w.Write([]byte(`{"items":[{"store_count":120,"average_sales":52000000,"growth_rate":3.5,"closing_rate":1.2}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, "").FetchStoreFigures(context.Background(), "1168051000", "cafe")
	require.NoError(t, err)
	assert.Equal(t, 120, got.StoreCount)
	assert.Equal(t, int64(52_000_000), got.AverageSales)
	assert.Equal(t, 3.5, got.GrowthRate)
	assert.Equal(t, 1.2, got.ClosingRate)
}

func TestClient_FetchStoreFigures_EmptyItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, "").FetchStoreFigures(context.Background(), "1168051000", "cafe")
	require.NoError(t, err)
	assert.Equal(t, 0, got.StoreCount)
	assert.Equal(t, int64(0), got.AverageSales)
}

func TestClient_FetchPopulation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pop-key", r.URL.Query().Get("serviceKey"))
		w.Write([]byte(`{"floating_population":60000,"male_population":33000,"female_population":27000,"top_age_group":"30s"}`))
	}))
	defer srv.Close()

	got, err := newTestClient("", srv.URL).FetchPopulation(context.Background(), "1168051000")
	require.NoError(t, err)
	assert.Equal(t, 60_000, got.Floating)
	assert.Equal(t, "30s", got.AgeGroup)
}

func TestClient_RetriesOn503(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"floating_population":100,"male_population":50,"female_population":50}`))
	}))
	defer srv.Close()

	got, err := newTestClient("", srv.URL).FetchPopulation(context.Background(), "1168051000")
	require.NoError(t, err)
	assert.Equal(t, 100, got.Floating)
	assert.Equal(t, int64(3), calls.Load())
}

func TestClient_NoRetryOn400(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient("", srv.URL).FetchPopulation(context.Background(), "1168051000")
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestClient_UnconfiguredURL(t *testing.T) {
	_, err := newTestClient("", "").FetchPopulation(context.Background(), "1168051000")
	assert.Error(t, err)
}
