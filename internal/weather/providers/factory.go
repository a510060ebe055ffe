package providers

import (
	"fmt"
	"net/http"

	"github.com/i474232898/weather-box/internal/weather"
)

const (
	NameWeatherstack = "weatherstack"
	NameWeatherAPI   = "weatherapi"
)

// New builds the provider selected by name.
func New(name string, client *http.Client, apiKey string, opts ...Option) (weather.Provider, error) {
	switch name {
	case NameWeatherstack, "":
		return NewWeatherstackProvider(client, apiKey, opts...), nil
	case NameWeatherAPI:
		return NewWeatherAPIProvider(client, apiKey, opts...), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", name)
	}
}
