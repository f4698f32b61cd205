package models

import "time"

// TrackedCity is one entry in the user's tracked-city list. Display identity
// and coordinates are resolved once when the city is added and never
// re-resolved; the weather fields are overwritten by each successful refresh.
type TrackedCity struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Region    string  `json:"region,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	Current       *CurrentConditions `json:"current,omitempty"`
	DailyForecast []ForecastDay      `json:"dailyForecast,omitempty"`
	TimezoneName  string             `json:"timezoneName,omitempty"`
	Headlines     []NewsArticle      `json:"headlines,omitempty"`
	LastUpdatedAt *time.Time         `json:"lastUpdatedAt,omitempty"`
	LastError     string             `json:"lastError,omitempty"`
}

// HasWeather reports whether the city has received at least one successful
// refresh and can be rendered with real numbers.
func (c *TrackedCity) HasWeather() bool {
	return c.Current != nil
}

// CurrentConditions is the snapshot of observed weather at refresh time.
type CurrentConditions struct {
	Temperature         float64 `json:"temperature"`
	ApparentTemperature float64 `json:"apparentTemperature"`
	Humidity            int     `json:"humidity"`
	CloudCoverPercent   int     `json:"cloudCoverPercent"`
	Pressure            float64 `json:"pressure"`
	WindSpeed           float64 `json:"windSpeed"`
	WindGusts           float64 `json:"windGusts"`
	ConditionCode       int     `json:"conditionCode"`
	IsDaytime           bool    `json:"isDaytime"`
}

// ForecastDay is one daily aggregate. Date is an ISO calendar date (YYYY-MM-DD)
// in the city's own timezone, as reported by the upstream forecast service.
type ForecastDay struct {
	Date             string  `json:"date"`
	ConditionCode    int     `json:"conditionCode"`
	MaxTemperature   float64 `json:"maxTemperature"`
	MinTemperature   float64 `json:"minTemperature"`
	PrecipitationSum float64 `json:"precipitationSum"`
	MaxWindSpeed     float64 `json:"maxWindSpeed"`
}

// NewsArticle is a best-effort local headline attached to a city card.
type NewsArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
}
