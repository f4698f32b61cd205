package api

import (
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/conditions"
	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// Card display states. A card with stale data and a fresh error stays
// populated: old numbers beat a blank card.
const (
	stateLoading   = "loading"
	stateErrored   = "errored"
	statePopulated = "populated"
)

type currentView struct {
	Temperature         float64 `json:"temperature"`
	ApparentTemperature float64 `json:"apparentTemperature"`
	Humidity            int     `json:"humidity"`
	CloudCoverPercent   int     `json:"cloudCover"`
	Pressure            float64 `json:"pressure"`
	WindSpeed           float64 `json:"windSpeed"`
	WindGusts           float64 `json:"windGusts"`
	Description         string  `json:"description"`
	Icon                string  `json:"icon"`
	IsDaytime           bool    `json:"isDay"`
}

type forecastDayView struct {
	Date             string  `json:"date"`
	Description      string  `json:"description"`
	Icon             string  `json:"icon"`
	MaxTemperature   float64 `json:"maxTemperature"`
	MinTemperature   float64 `json:"minTemperature"`
	PrecipitationSum float64 `json:"precipitationSum"`
	MaxWindSpeed     float64 `json:"maxWindSpeed"`
}

type cityCard struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Country       string               `json:"country"`
	Region        string               `json:"region,omitempty"`
	Latitude      float64              `json:"latitude"`
	Longitude     float64              `json:"longitude"`
	State         string               `json:"state"`
	Timezone      string               `json:"timezone,omitempty"`
	LastUpdatedAt *time.Time           `json:"lastUpdatedAt,omitempty"`
	Error         string               `json:"error,omitempty"`
	Current       *currentView         `json:"current,omitempty"`
	Forecast      []forecastDayView    `json:"forecast,omitempty"`
	Headlines     []models.NewsArticle `json:"headlines,omitempty"`
}

// newCityCard projects a tracked record into its presentation card, resolving
// condition codes to text and icons.
func newCityCard(city models.TrackedCity) cityCard {
	card := cityCard{
		ID:            city.ID,
		Name:          city.Name,
		Country:       city.Country,
		Region:        city.Region,
		Latitude:      city.Latitude,
		Longitude:     city.Longitude,
		Timezone:      city.TimezoneName,
		LastUpdatedAt: city.LastUpdatedAt,
		Error:         city.LastError,
		Headlines:     city.Headlines,
	}

	switch {
	case city.HasWeather():
		card.State = statePopulated
	case city.LastError != "":
		card.State = stateErrored
	default:
		card.State = stateLoading
	}

	if city.Current != nil {
		card.Current = &currentView{
			Temperature:         city.Current.Temperature,
			ApparentTemperature: city.Current.ApparentTemperature,
			Humidity:            city.Current.Humidity,
			CloudCoverPercent:   city.Current.CloudCoverPercent,
			Pressure:            city.Current.Pressure,
			WindSpeed:           city.Current.WindSpeed,
			WindGusts:           city.Current.WindGusts,
			Description:         conditions.Describe(city.Current.ConditionCode),
			Icon:                conditions.Icon(city.Current.ConditionCode, city.Current.IsDaytime),
			IsDaytime:           city.Current.IsDaytime,
		}
	}
	for _, day := range city.DailyForecast {
		card.Forecast = append(card.Forecast, forecastDayView{
			Date:             day.Date,
			Description:      conditions.Describe(day.ConditionCode),
			Icon:             conditions.Icon(day.ConditionCode, true),
			MaxTemperature:   day.MaxTemperature,
			MinTemperature:   day.MinTemperature,
			PrecipitationSum: day.PrecipitationSum,
			MaxWindSpeed:     day.MaxWindSpeed,
		})
	}
	return card
}

func newCityCards(cities []models.TrackedCity) []cityCard {
	cards := make([]cityCard, 0, len(cities))
	for _, city := range cities {
		cards = append(cards, newCityCard(city))
	}
	return cards
}
