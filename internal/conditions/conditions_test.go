package conditions

import "testing"

// TestDescribe_KnownCodes verifies descriptions for a sample of codes across
// the vocabulary (clear, fog, drizzle, rain, snow, showers, thunderstorm).
func TestDescribe_KnownCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		want string
	}{
		{name: "clear sky", code: 0, want: "Clear sky"},
		{name: "overcast", code: 3, want: "Overcast"},
		{name: "fog", code: 45, want: "Fog"},
		{name: "dense drizzle", code: 55, want: "Dense drizzle"},
		{name: "heavy rain", code: 65, want: "Heavy rain"},
		{name: "snow grains", code: 77, want: "Snow grains"},
		{name: "violent rain showers", code: 82, want: "Violent rain showers"},
		{name: "thunderstorm with heavy hail", code: 99, want: "Thunderstorm with heavy hail"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Describe(tc.code); got != tc.want {
				t.Fatalf("Describe(%d) = %q, want %q", tc.code, got, tc.want)
			}
		})
	}
}

// TestDescribe_UnknownCode verifies the fallback for codes outside the vocabulary.
func TestDescribe_UnknownCode(t *testing.T) {
	for _, code := range []int{-1, 4, 42, 100, 9999} {
		if got := Describe(code); got != UnknownDescription {
			t.Errorf("Describe(%d) = %q, want %q", code, got, UnknownDescription)
		}
		if Known(code) {
			t.Errorf("Known(%d) = true, want false", code)
		}
	}
}

// TestIcon_DayNight verifies that clear-sky codes switch glyphs at night while
// weather-dominated codes do not.
func TestIcon_DayNight(t *testing.T) {
	if day, night := Icon(0, true), Icon(0, false); day == night {
		t.Errorf("Icon(0) day %q == night %q, want different glyphs", day, night)
	}
	if day, night := Icon(61, true), Icon(61, false); day != night {
		t.Errorf("Icon(61) day %q != night %q, want same glyph for rain", day, night)
	}
}

// TestIcon_UnknownCode verifies the fallback glyph.
func TestIcon_UnknownCode(t *testing.T) {
	if got := Icon(1234, true); got != unknownIcon {
		t.Fatalf("Icon(1234, true) = %q, want %q", got, unknownIcon)
	}
}

// TestVocabularyComplete verifies every documented code has both a description
// and a day icon.
func TestVocabularyComplete(t *testing.T) {
	codes := []int{0, 1, 2, 3, 45, 48, 51, 53, 55, 56, 57, 61, 63, 65, 66, 67,
		71, 73, 75, 77, 80, 81, 82, 85, 86, 95, 96, 99}
	if len(descriptions) != len(codes) {
		t.Fatalf("descriptions has %d entries, want %d", len(descriptions), len(codes))
	}
	for _, code := range codes {
		if !Known(code) {
			t.Errorf("Known(%d) = false, want true", code)
		}
		if _, ok := dayIcons[code]; !ok {
			t.Errorf("no day icon for code %d", code)
		}
	}
}
