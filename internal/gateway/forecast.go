package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

const forecastDays = 7

// ForecastBundle is the result of the combined weather call: the current
// snapshot plus up to seven daily aggregates, ordered by ascending date
// starting from today in the city's zone. Timezone carries the zone the
// forecast upstream resolved for the coordinates; it serves as a secondary
// source when the dedicated timezone lookup fails.
type ForecastBundle struct {
	Current  models.CurrentConditions
	Daily    []models.ForecastDay
	Timezone string
}

// ForecastClient fetches current conditions and the daily forecast in a
// single combined call. Failure here is fatal for the refresh cycle that
// issued it; the caller records the error on the city.
type ForecastClient struct {
	baseURL string
	caller  *caller
}

// NewForecastClient creates a client for the given forecast endpoint.
func NewForecastClient(baseURL string, opts *Options) *ForecastClient {
	return &ForecastClient{
		baseURL: baseURL,
		caller:  newCaller("forecast", opts),
	}
}

type forecastResponse struct {
	Timezone string `json:"timezone"`
	Current  *struct {
		Temperature         float64 `json:"temperature_2m"`
		RelativeHumidity    int     `json:"relative_humidity_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		WeatherCode         int     `json:"weather_code"`
		CloudCover          int     `json:"cloud_cover"`
		PressureMSL         float64 `json:"pressure_msl"`
		WindSpeed           float64 `json:"wind_speed_10m"`
		WindGusts           float64 `json:"wind_gusts_10m"`
		IsDay               int     `json:"is_day"`
	} `json:"current"`
	Daily *struct {
		Time             []string  `json:"time"`
		WeatherCode      []int     `json:"weather_code"`
		TemperatureMax   []float64 `json:"temperature_2m_max"`
		TemperatureMin   []float64 `json:"temperature_2m_min"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		WindSpeedMax     []float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

// Fetch returns the combined current+daily payload for the coordinates.
func (c *ForecastClient) Fetch(ctx context.Context, lat, lon float64) (ForecastBundle, error) {
	params := url.Values{}
	params.Set("latitude", formatCoord(lat))
	params.Set("longitude", formatCoord(lon))
	params.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation,weather_code,cloud_cover,pressure_msl,wind_speed_10m,wind_direction_10m,wind_gusts_10m")
	params.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum,wind_speed_10m_max,wind_direction_10m_dominant")
	params.Set("timezone", "auto")
	params.Set("forecast_days", strconv.Itoa(forecastDays))

	var resp forecastResponse
	if err := c.caller.getJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return ForecastBundle{}, fmt.Errorf("fetch forecast (%.2f, %.2f): %w", lat, lon, err)
	}
	if resp.Current == nil {
		return ForecastBundle{}, fmt.Errorf("fetch forecast (%.2f, %.2f): %w: missing current block", lat, lon, ErrMalformedPayload)
	}

	bundle := ForecastBundle{
		Current: models.CurrentConditions{
			Temperature:         resp.Current.Temperature,
			ApparentTemperature: resp.Current.ApparentTemperature,
			Humidity:            resp.Current.RelativeHumidity,
			CloudCoverPercent:   resp.Current.CloudCover,
			Pressure:            resp.Current.PressureMSL,
			WindSpeed:           resp.Current.WindSpeed,
			WindGusts:           resp.Current.WindGusts,
			ConditionCode:       resp.Current.WeatherCode,
			IsDaytime:           resp.Current.IsDay == 1,
		},
		Timezone: resp.Timezone,
	}
	if resp.Daily != nil {
		bundle.Daily = mapDaily(resp)
	}
	return bundle, nil
}

// mapDaily zips the upstream's parallel daily arrays into forecast days.
// The arrays are clamped to the shortest so a short or padded response can
// never index out of range; at most forecastDays entries are kept.
func mapDaily(resp forecastResponse) []models.ForecastDay {
	d := resp.Daily
	n := len(d.Time)
	for _, m := range []int{len(d.WeatherCode), len(d.TemperatureMax), len(d.TemperatureMin)} {
		if m < n {
			n = m
		}
	}
	if n > forecastDays {
		n = forecastDays
	}

	days := make([]models.ForecastDay, 0, n)
	for i := 0; i < n; i++ {
		day := models.ForecastDay{
			Date:           d.Time[i],
			ConditionCode:  d.WeatherCode[i],
			MaxTemperature: d.TemperatureMax[i],
			MinTemperature: d.TemperatureMin[i],
		}
		if i < len(d.PrecipitationSum) {
			day.PrecipitationSum = d.PrecipitationSum[i]
		}
		if i < len(d.WindSpeedMax) {
			day.MaxWindSpeed = d.WindSpeedMax[i]
		}
		days = append(days, day)
	}
	return days
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
