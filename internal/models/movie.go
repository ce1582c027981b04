package models

// MovieRecord is a read-only catalog entry.
type MovieRecord struct {
	ID         int    `json:"id,omitempty"`
	Title      string `json:"title"`
	Genres     string `json:"genres"`
	Year       int    `json:"year,omitempty"`
	HasYear    bool   `json:"-"`
	CleanTitle string `json:"clean_title"`
}

// MovieDetails is third-party metadata shown next to a catalog title.
type MovieDetails struct {
	Title     string   `json:"title"`
	Year      int      `json:"year,omitempty"`
	Genres    []string `json:"genres"`
	Language  string   `json:"language"`
	Synopsis  string   `json:"synopsis"`
	PosterURL string   `json:"poster_url,omitempty"`
}

// WeatherReport is the current weather at a location.
type WeatherReport struct {
	Location    string  `json:"location"`
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"`
	IconCode    string  `json:"icon_code,omitempty"`
	IconURL     string  `json:"icon_url,omitempty"`
}
