package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-box/internal/weather"
)

const parisPayload = `{
	"request": {"type": "City", "query": "Paris, France"},
	"location": {"name": "Paris", "region": "Ile-de-France", "country": "France"},
	"current": {
		"temperature": 15,
		"weather_code": 1003,
		"is_day": "yes",
		"weather_descriptions": ["Partly cloudy"],
		"wind_speed": 10
	}
}`

type capturedRequest struct {
	URL *url.URL
}

func newWeatherstackServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	seen := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.URL = r.URL
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestWeatherstackCurrent(t *testing.T) {
	srv, seen := newWeatherstackServer(t, http.StatusOK, parisPayload)
	p := NewWeatherstackProvider(srv.Client(), "secret", WithBaseURL(srv.URL))

	snap, err := p.Current(context.Background(), "Paris")
	require.NoError(t, err)

	assert.Equal(t, "/current", seen.URL.Path)
	assert.Equal(t, "secret", seen.URL.Query().Get("access_key"))
	assert.Equal(t, "Paris", seen.URL.Query().Get("query"))

	assert.Equal(t, weather.WeatherSnapshot{
		CityName:      "Paris",
		Region:        "Ile-de-France",
		Country:       "France",
		Temperature:   15,
		ConditionCode: 1003,
		IsDaytime:     true,
		Descriptions:  []string{"Partly cloudy"},
		WindSpeedKph:  10,
	}, snap)
}

func TestWeatherstackCurrent_NightAndEncodedCity(t *testing.T) {
	body := `{"location":{"name":"New York","region":"New York","country":"USA"},
		"current":{"temperature":-2.5,"weather_code":1000,"is_day":"no","weather_descriptions":["Clear"],"wind_speed":4}}`
	srv, seen := newWeatherstackServer(t, http.StatusOK, body)
	p := NewWeatherstackProvider(srv.Client(), "secret", WithBaseURL(srv.URL+"/"))

	snap, err := p.Current(context.Background(), "New York")
	require.NoError(t, err)

	assert.Equal(t, "New York", seen.URL.Query().Get("query"))
	assert.False(t, snap.IsDaytime)
	assert.Equal(t, "icon-1000n", snap.IconClass())
	assert.Equal(t, -2.5, snap.Temperature)
}

func TestWeatherstackCurrent_ErrorPayload(t *testing.T) {
	body := `{"success": false, "error": {"code": 615, "type": "request_failed", "info": "Your API request failed."}}`
	srv, _ := newWeatherstackServer(t, http.StatusOK, body)
	p := NewWeatherstackProvider(srv.Client(), "secret", WithBaseURL(srv.URL))

	_, err := p.Current(context.Background(), "")
	require.Error(t, err)

	var apiErr *weather.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 615, apiErr.Code)
	assert.Equal(t, "request_failed", apiErr.Type)
	assert.Equal(t, "weatherstack", apiErr.Provider)
}

func TestWeatherstackCurrent_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>oops</html>`},
		{name: "missing current", body: `{"location": {"name": "Paris"}}`},
		{name: "wrong type", body: `{"location": {"name": "Paris"}, "current": {"temperature": "warm"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newWeatherstackServer(t, http.StatusOK, tt.body)
			p := NewWeatherstackProvider(srv.Client(), "secret", WithBaseURL(srv.URL))

			_, err := p.Current(context.Background(), "Paris")
			assert.ErrorIs(t, err, weather.ErrMalformedResponse)
		})
	}
}

func TestWeatherstackCurrent_ServerErrorIsNotRetriedByDefault(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewWeatherstackProvider(srv.Client(), "secret", WithBaseURL(srv.URL))

	_, err := p.Current(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrNetwork)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWeatherstackCurrent_RetriesWhenEnabled(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(parisPayload))
	}))
	defer srv.Close()

	p := NewWeatherstackProvider(srv.Client(), "secret", WithBaseURL(srv.URL), WithMaxRetries(1))

	snap, err := p.Current(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", snap.CityName)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWeatherstackCurrent_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	p := NewWeatherstackProvider(http.DefaultClient, "secret", WithBaseURL(base))

	_, err := p.Current(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrNetwork)
}

func TestWeatherstackCurrent_CircuitOpens(t *testing.T) {
	srv, _ := newWeatherstackServer(t, http.StatusInternalServerError, "")
	p := NewWeatherstackProvider(srv.Client(), "secret", WithBaseURL(srv.URL))

	for i := 0; i < 6; i++ {
		_, err := p.Current(context.Background(), "Paris")
		require.ErrorIs(t, err, weather.ErrNetwork)
	}

	_, err := p.Current(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrProviderUnavailable)
}

func TestWeatherstackCurrent_MissingKey(t *testing.T) {
	p := NewWeatherstackProvider(http.DefaultClient, "")

	_, err := p.Current(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrMissingAPIKey)
}
