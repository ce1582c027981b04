package resilience

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("test-getjson", time.Second)
	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, "ok", out.Name)
}

func TestHTTPClient_StatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClient("test-404", time.Second)
	for range 15 {
		err := c.GetJSON(context.Background(), srv.URL, &struct{}{})
		assert.True(t, IsStatus(err, http.StatusNotFound))
	}
	assert.Equal(t, "closed", c.State(), "client errors must not trip the breaker")
}

func TestHTTPClient_TripsOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClient("test-502", time.Second)
	for range 10 {
		_ = c.GetJSON(context.Background(), srv.URL, &struct{}{})
	}
	assert.Equal(t, "open", c.State())

	err := c.GetJSON(context.Background(), srv.URL, &struct{}{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(10), hits.Load())
}

func TestHTTPClient_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	err := NewHTTPClient("test-badjson", time.Second).GetJSON(context.Background(), srv.URL, &struct{}{})
	assert.ErrorContains(t, err, "decode")
}
