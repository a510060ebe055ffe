package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-box/internal/weather"
)

// WeatherstackProvider implements weather.Provider for api.weatherstack.com.
type WeatherstackProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherstackProvider(client *http.Client, apiKey string, opts ...Option) *WeatherstackProvider {
	o := applyOptions("http://api.weatherstack.com", opts)

	return &WeatherstackProvider{
		name:    "weatherstack",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(o.baseURL, "/"),
		httpCfg: newHTTPClientConfig(client, o.maxRetries),
		circuit: newCircuitBreaker("weatherstack"),
	}
}

func (p *WeatherstackProvider) Name() string {
	return p.name
}

// weatherstackPayload covers both the success shape and the
// {"success":false,"error":{...}} shape, which is served with status 200.
type weatherstackPayload struct {
	Success *bool `json:"success"`
	Error   *struct {
		Code int    `json:"code"`
		Type string `json:"type"`
		Info string `json:"info"`
	} `json:"error"`
	Location *struct {
		Name    string `json:"name"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
	Current *struct {
		Temperature         float64  `json:"temperature"`
		WeatherCode         int      `json:"weather_code"`
		IsDay               string   `json:"is_day"`
		WeatherDescriptions []string `json:"weather_descriptions"`
		WindSpeed           float64  `json:"wind_speed"`
	} `json:"current"`
}

// Current fetches current conditions. An empty city is sent as is; the provider
// answers with an error payload.
func (p *WeatherstackProvider) Current(ctx context.Context, city string) (weather.WeatherSnapshot, error) {
	if p.apiKey == "" {
		return weather.WeatherSnapshot{}, weather.ErrMissingAPIKey
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("access_key", p.apiKey)
		values.Set("query", city)

		u := fmt.Sprintf("%s/current?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.WeatherSnapshot{}, err
	}
	defer resp.Body.Close()

	var payload weatherstackPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: %v", weather.ErrMalformedResponse, err)
	}

	if payload.Error != nil || (payload.Success != nil && !*payload.Success) {
		apiErr := &weather.APIError{Provider: p.name}
		if payload.Error != nil {
			apiErr.Code = payload.Error.Code
			apiErr.Type = payload.Error.Type
			apiErr.Info = payload.Error.Info
		}
		return weather.WeatherSnapshot{}, apiErr
	}

	if payload.Location == nil || payload.Current == nil {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: missing location or current", weather.ErrMalformedResponse)
	}

	return weather.WeatherSnapshot{
		CityName:      payload.Location.Name,
		Region:        payload.Location.Region,
		Country:       payload.Location.Country,
		Temperature:   payload.Current.Temperature,
		ConditionCode: payload.Current.WeatherCode,
		IsDaytime:     payload.Current.IsDay != "no",
		Descriptions:  payload.Current.WeatherDescriptions,
		WindSpeedKph:  payload.Current.WindSpeed,
	}, nil
}
