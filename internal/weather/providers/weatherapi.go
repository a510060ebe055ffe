package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-box/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
// Its condition codes are the ones the glyph table is keyed on.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, opts ...Option) *WeatherAPIProvider {
	o := applyOptions("https://api.weatherapi.com/v1/current.json", opts)

	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: o.baseURL,
		httpCfg: newHTTPClientConfig(client, o.maxRetries),
		circuit: newCircuitBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type weatherAPIErrorPayload struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *WeatherAPIProvider) Current(ctx context.Context, city string) (weather.WeatherSnapshot, error) {
	if p.apiKey == "" {
		return weather.WeatherSnapshot{}, weather.ErrMissingAPIKey
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", city)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			var payload weatherAPIErrorPayload
			if json.Unmarshal(se.Body, &payload) == nil && payload.Error != nil {
				return weather.WeatherSnapshot{}, &weather.APIError{
					Provider: p.name,
					Code:     payload.Error.Code,
					Info:     payload.Error.Message,
				}
			}
		}
		return weather.WeatherSnapshot{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Location *struct {
			Name    string `json:"name"`
			Region  string `json:"region"`
			Country string `json:"country"`
		} `json:"location"`
		Current *struct {
			TempC     float64 `json:"temp_c"`
			IsDay     int     `json:"is_day"`
			WindKph   float64 `json:"wind_kph"`
			Condition struct {
				Text string `json:"text"`
				Code int    `json:"code"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: %v", weather.ErrMalformedResponse, err)
	}
	if payload.Location == nil || payload.Current == nil {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: missing location or current", weather.ErrMalformedResponse)
	}

	var descriptions []string
	if payload.Current.Condition.Text != "" {
		descriptions = []string{payload.Current.Condition.Text}
	}

	return weather.WeatherSnapshot{
		CityName:      payload.Location.Name,
		Region:        payload.Location.Region,
		Country:       payload.Location.Country,
		Temperature:   payload.Current.TempC,
		ConditionCode: payload.Current.Condition.Code,
		IsDaytime:     payload.Current.IsDay != 0,
		Descriptions:  descriptions,
		WindSpeedKph:  payload.Current.WindKph,
	}, nil
}
