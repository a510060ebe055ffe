package weather

import (
	"strconv"
	"strings"
	"time"
)

// WeatherSnapshot is the current weather for one city as reported by a provider.
// A newer snapshot always replaces the previous one as a whole.
type WeatherSnapshot struct {
	CityName      string   `json:"cityName"`
	Region        string   `json:"region"`
	Country       string   `json:"country"`
	Temperature   float64  `json:"temperature"`
	ConditionCode int      `json:"conditionCode"`
	IsDaytime     bool     `json:"isDaytime"`
	Descriptions  []string `json:"descriptions"`
	WindSpeedKph  float64  `json:"windSpeedKph"`
}

// RegionCountry returns the "region, country" label shown under the city.
func (s WeatherSnapshot) RegionCountry() string {
	return s.Region + ", " + s.Country
}

// Description joins the provider descriptions the way a text node renders a list.
func (s WeatherSnapshot) Description() string {
	return strings.Join(s.Descriptions, ",")
}

// IconClass returns the glyph selector, e.g. "icon-1003d".
func (s WeatherSnapshot) IconClass() string {
	return IconClass(s.ConditionCode, s.IsDaytime)
}

// DisplayState is everything the presentation layer needs to draw the widget.
type DisplayState struct {
	City        string    `json:"city"`
	Location    string    `json:"location"`
	Background  string    `json:"background"`
	Temperature string    `json:"temperature"`
	IconClass   string    `json:"iconClass"`
	Glyph       string    `json:"glyph"`
	Description string    `json:"description"`
	Wind        string    `json:"wind"`
	UpdatedAt   time.Time `json:"updatedAt"` // always UTC
}

// InitialDisplay mirrors the static template shown before the first fetch completes.
func InitialDisplay() DisplayState {
	return DisplayState{
		City:        "City",
		Description: "Clear",
		Wind:        "0",
	}
}

// Apply overwrites every fetched field from the snapshot. Background is the
// widget's own setting, never the provider's.
func (d DisplayState) Apply(s WeatherSnapshot, background string, now time.Time) DisplayState {
	glyph, _ := Glyph(s.ConditionCode, s.IsDaytime)

	d.City = s.CityName
	d.Location = s.RegionCountry()
	d.Background = background
	d.Temperature = FormatNumber(s.Temperature) + "°"
	d.IconClass = s.IconClass()
	d.Glyph = glyph
	d.Description = s.Description()
	d.Wind = FormatNumber(s.WindSpeedKph) + " km/h"
	d.UpdatedAt = now.UTC()
	return d
}

// ContentChanged is emitted after every successful render.
type ContentChanged struct {
	ID          string    `json:"id"`
	Temperature string    `json:"temperature"`
	Description []string  `json:"description"`
	EmittedAt   time.Time `json:"emittedAt"`
}

// RenderFailed is emitted when a render could not update the display.
type RenderFailed struct {
	ID        string    `json:"id"`
	City      string    `json:"city"`
	Err       string    `json:"error"`
	EmittedAt time.Time `json:"emittedAt"`
}

// FormatNumber prints a number without a trailing ".0", so 15 renders as "15"
// and 15.5 as "15.5".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
