package conditions

// WMO weather interpretation codes as reported by the forecast upstream.
// The tables cover every code the upstream documents; anything else maps to
// the unknown description and icon.

const (
	UnknownDescription = "Unknown"
	unknownIcon        = "❓"
)

var descriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

var dayIcons = map[int]string{
	0:  "☀️",
	1:  "🌤️",
	2:  "⛅",
	3:  "☁️",
	45: "🌫️",
	48: "🌫️",
	51: "🌦️",
	53: "🌦️",
	55: "🌧️",
	56: "🌧️",
	57: "🌧️",
	61: "🌧️",
	63: "🌧️",
	65: "🌧️",
	66: "🌧️",
	67: "🌧️",
	71: "🌨️",
	73: "❄️",
	75: "❄️",
	77: "❄️",
	80: "🌦️",
	81: "🌧️",
	82: "🌧️",
	85: "🌨️",
	86: "❄️",
	95: "⛈️",
	96: "⛈️",
	99: "⛈️",
}

// nightIcons overrides dayIcons for codes whose glyph depends on daylight.
var nightIcons = map[int]string{
	0: "🌙",
	1: "🌙",
}

// Describe returns the human-readable description for a condition code.
// Unrecognized codes return UnknownDescription, never an error.
func Describe(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return UnknownDescription
}

// Icon returns the display glyph for a condition code, taking daylight into
// account for the codes where it matters.
func Icon(code int, isDay bool) string {
	if !isDay {
		if icon, ok := nightIcons[code]; ok {
			return icon
		}
	}
	if icon, ok := dayIcons[code]; ok {
		return icon
	}
	return unknownIcon
}

// Known reports whether the code is part of the documented vocabulary.
func Known(code int) bool {
	_, ok := descriptions[code]
	return ok
}
