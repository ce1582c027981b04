package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "Kuala Lumpur", r.URL.Query().Get("q"))
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		_, _ = w.Write([]byte(`{"name":"Kuala Lumpur","weather":[{"main":"Rain","description":"light rain","icon":"10d"}],"main":{"temp":27.5}}`))
	}))
	defer srv.Close()

	report, err := NewClient("secret", srv.URL+"/").Fetch(context.Background(), " Kuala Lumpur ")
	require.NoError(t, err)
	assert.Equal(t, "Light rain", report.Description)
	assert.Equal(t, 27.5, report.Temperature)
	assert.Equal(t, "10d", report.IconCode)
	assert.Equal(t, "https://openweathermap.org/img/wn/10d@2x.png", report.IconURL)
	assert.Equal(t, "Kuala Lumpur", report.Location)
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unknown city", http.StatusNotFound, `{"cod":"404","message":"city not found"}`, ErrLocationNotFound},
		{"no weather entries", http.StatusOK, `{"weather":[],"main":{"temp":1}}`, ErrNoWeather},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient("k", srv.URL).Fetch(context.Background(), "Nowhere")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient("k", srv.URL).Fetch(context.Background(), "Paris")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLocationNotFound)
}

func TestFetch_BlankLocation(t *testing.T) {
	_, err := NewClient("k", "http://127.0.0.1:1").Fetch(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Overcast clouds", capitalize("overcast CLOUDS"))
	assert.Equal(t, "", capitalize(""))
}

func TestBreakerState_OpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL)
	assert.Equal(t, "closed", c.BreakerState())
	for range 10 {
		_, _ = c.Fetch(context.Background(), "Paris")
	}
	assert.Equal(t, "open", c.BreakerState())
}
