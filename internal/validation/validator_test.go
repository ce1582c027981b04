package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-discovery-weather-recommender/internal/models"
)

func TestStruct_Register(t *testing.T) {
	tests := []struct {
		name      string
		req       models.RegisterRequest
		wantField string
	}{
		{"valid", models.RegisterRequest{Email: "a@example.com", Password: "pw", ConfirmPassword: "pw"}, ""},
		{"bad email", models.RegisterRequest{Email: "nope", Password: "pw", ConfirmPassword: "pw"}, "email"},
		{"mismatch", models.RegisterRequest{Email: "a@example.com", Password: "pw", ConfirmPassword: "px"}, "confirm_password"},
		{"missing password", models.RegisterRequest{Email: "a@example.com"}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Fields[0].Field)
		})
	}
}

func TestStruct_WeatherConditionKeys(t *testing.T) {
	ok := models.EditProfileRequest{GenrePreferences: map[string][]string{"rain": {"Drama"}, "clear": nil}}
	assert.NoError(t, Struct(&ok))

	bad := models.EditProfileRequest{GenrePreferences: map[string][]string{"tornado": {"Disaster"}}}
	err := Struct(&bad)
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "weather_condition", verr.Fields[0].Tag)
	assert.Contains(t, verr.Error(), "tornado")
}

func TestStruct_DecadeRange(t *testing.T) {
	assert.NoError(t, Struct(&models.RecommendationQuery{}))
	assert.NoError(t, Struct(&models.RecommendationQuery{Decade: 1990}))
	assert.Error(t, Struct(&models.RecommendationQuery{Decade: 90}))
}
