package models

import "strings"

// WeatherCondition is a canonical weather token used both to match a free-text
// weather description and to key a user's genre preferences.
type WeatherCondition string

const (
	Thunderstorm WeatherCondition = "thunderstorm"
	Drizzle      WeatherCondition = "drizzle"
	Rain         WeatherCondition = "rain"
	Snow         WeatherCondition = "snow"
	Mist         WeatherCondition = "mist"
	Fog          WeatherCondition = "fog"
	Haze         WeatherCondition = "haze"
	Clear        WeatherCondition = "clear"
	Clouds       WeatherCondition = "clouds"
)

// WeatherConditions lists every condition in matching order. The first entry
// found inside a weather description wins, so "drizzle" precedes "rain".
var WeatherConditions = []WeatherCondition{
	Thunderstorm, Drizzle, Rain, Snow, Mist, Fog, Haze, Clear, Clouds,
}

// IsWeatherCondition reports whether key names one of WeatherConditions.
func IsWeatherCondition(key string) bool {
	for _, c := range WeatherConditions {
		if string(c) == key {
			return true
		}
	}
	return false
}

// MatchCondition returns the first condition contained in description.
func MatchCondition(description string) (WeatherCondition, bool) {
	d := strings.ToLower(description)
	for _, c := range WeatherConditions {
		if strings.Contains(d, string(c)) {
			return c, true
		}
	}
	return "", false
}

// GenrePreferences maps a weather condition key to an ordered list of genre tags.
type GenrePreferences map[string][]string

var defaultGenrePreferences = map[WeatherCondition][]string{
	Thunderstorm: {"Action", "Thriller"},
	Drizzle:      {"Drama", "Romance"},
	Rain:         {"Drama", "Romance"},
	Snow:         {"Animation", "Family"},
	Mist:         {"Mystery", "Fantasy"},
	Fog:          {"Mystery", "Fantasy"},
	Haze:         {"Mystery", "Fantasy"},
	Clear:        {"Adventure", "Comedy"},
	Clouds:       {"Documentary", "Sci-Fi"},
}

// DefaultGenres returns a fresh copy of the built-in genre list for c.
func DefaultGenres(c WeatherCondition) []string {
	return append([]string(nil), defaultGenrePreferences[c]...)
}

// DefaultGenrePreferences returns a fresh copy of the built-in table.
func DefaultGenrePreferences() GenrePreferences {
	prefs := make(GenrePreferences, len(WeatherConditions))
	for _, c := range WeatherConditions {
		prefs[string(c)] = DefaultGenres(c)
	}
	return prefs
}

// UnknownKeys returns the keys of p that are not weather conditions.
func (p GenrePreferences) UnknownKeys() []string {
	var unknown []string
	for k := range p {
		if !IsWeatherCondition(k) {
			unknown = append(unknown, k)
		}
	}
	return unknown
}

// Normalized returns a copy of p with blank tags removed and every missing or
// emptied condition filled from the built-in table. Unknown keys are dropped.
func (p GenrePreferences) Normalized() GenrePreferences {
	out := make(GenrePreferences, len(WeatherConditions))
	for _, c := range WeatherConditions {
		var genres []string
		for _, g := range p[string(c)] {
			if g = strings.TrimSpace(g); g != "" {
				genres = append(genres, g)
			}
		}
		if len(genres) == 0 {
			genres = DefaultGenres(c)
		}
		out[string(c)] = genres
	}
	return out
}

// For returns the genre list for c, falling back to the default list.
func (p GenrePreferences) For(c WeatherCondition) []string {
	if genres, ok := p[string(c)]; ok && len(genres) > 0 {
		return genres
	}
	return DefaultGenres(c)
}

// Clone returns a deep copy of p.
func (p GenrePreferences) Clone() GenrePreferences {
	if p == nil {
		return nil
	}
	out := make(GenrePreferences, len(p))
	for k, v := range p {
		out[k] = append([]string(nil), v...)
	}
	return out
}
