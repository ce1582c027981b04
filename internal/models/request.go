package models

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=1"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// SignInRequest is the request body for signing in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignInResponse carries the session token.
type SignInResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// ResetPasswordRequest is the request body for a password reset.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// EditProfileRequest is the request body for a profile edit.
type EditProfileRequest struct {
	Email            *string             `json:"email" validate:"omitempty,email"`
	Password         *string             `json:"password" validate:"omitempty,min=1"`
	Genres           []string            `json:"genres"`
	GenrePreferences map[string][]string `json:"genre_preferences" validate:"omitempty,dive,keys,weather_condition,endkeys"`
}

// NotificationsRequest toggles release notifications.
type NotificationsRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// WatchlistRequest names a title to add to the watchlist.
type WatchlistRequest struct {
	Title string `json:"title" validate:"required"`
}

// RateRequest records a rating for a title.
type RateRequest struct {
	Title  string `json:"title" validate:"required"`
	Rating int    `json:"rating"`
}

// RecommendationQuery holds the query parameters of a recommendation request.
type RecommendationQuery struct {
	Weather  string `query:"weather"`
	Location string `query:"location"`
	Decade   int    `query:"decade" validate:"omitempty,min=1000,max=9990"`
	Genre    string `query:"genre"`
	Year     string `query:"year"`
}

// RecommendationResponse wraps an engine result for the API.
type RecommendationResponse struct {
	Weather         string   `json:"weather"`
	Condition       string   `json:"condition,omitempty"`
	Recommendations []string `json:"recommendations"`
	NoMatches       bool     `json:"no_matches"`
	Message         string   `json:"message,omitempty"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Query   string   `json:"query"`
	Results []string `json:"results"`
	Message string   `json:"message,omitempty"`
}
