package models

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// User is a registered account together with its viewing preferences.
type User struct {
	// ID is stable for the life of the account; sessions are bound to it.
	ID               string
	Email            string
	PasswordHash     string
	Genres           []string
	Notifications    bool
	Watchlist        []string
	Ratings          map[string]int
	GenrePreferences GenrePreferences
}

// HashPassword returns the lowercase hex SHA-256 digest of password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// NewUser creates a user from a plaintext secret. The secret is hashed here and
// nowhere else.
func NewUser(email, password string) *User {
	return &User{
		ID:               uuid.NewString(),
		Email:            email,
		PasswordHash:     HashPassword(password),
		Genres:           []string{},
		Watchlist:        []string{},
		Ratings:          map[string]int{},
		GenrePreferences: DefaultGenrePreferences(),
	}
}

// RestoreUser rebuilds a user read from storage. passwordHash is never hashed
// again, only normalized to lowercase hex. An empty id gets a fresh one.
func RestoreUser(id, email, passwordHash string, genres []string, notifications bool,
	watchlist []string, ratings map[string]int, prefs GenrePreferences) *User {
	if id == "" {
		id = uuid.NewString()
	}
	u := &User{
		ID:               id,
		Email:            email,
		PasswordHash:     strings.ToLower(passwordHash),
		Genres:           append([]string{}, genres...),
		Notifications:    notifications,
		Ratings:          make(map[string]int, len(ratings)),
		GenrePreferences: prefs.Normalized(),
	}
	u.Watchlist = []string{}
	for _, title := range watchlist {
		if !slices.Contains(u.Watchlist, title) {
			u.Watchlist = append(u.Watchlist, title)
		}
	}
	for title, r := range ratings {
		if r >= MinRating && r <= MaxRating {
			u.Ratings[title] = r
		}
	}
	return u
}

// CheckPassword hashes password and compares it with the stored digest.
func (u *User) CheckPassword(password string) bool {
	return subtle.ConstantTimeCompare([]byte(u.PasswordHash), []byte(HashPassword(password))) == 1
}

// SetPassword replaces the stored digest with the hash of password.
func (u *User) SetPassword(password string) {
	u.PasswordHash = HashPassword(password)
}

// Clone returns a deep copy of u.
func (u *User) Clone() User {
	c := *u
	c.Genres = slices.Clone(u.Genres)
	c.Watchlist = slices.Clone(u.Watchlist)
	c.Ratings = make(map[string]int, len(u.Ratings))
	for k, v := range u.Ratings {
		c.Ratings[k] = v
	}
	c.GenrePreferences = u.GenrePreferences.Clone()
	return c
}

// Profile is the public view of a user.
func (u *User) Profile() UserProfile {
	c := u.Clone()
	return UserProfile{
		Email:            c.Email,
		Genres:           c.Genres,
		Notifications:    c.Notifications,
		Watchlist:        c.Watchlist,
		Ratings:          c.Ratings,
		GenrePreferences: c.GenrePreferences,
	}
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// UserProfile is returned by the API; it never carries the password hash.
type UserProfile struct {
	Email            string           `json:"email"`
	Genres           []string         `json:"genres"`
	Notifications    bool             `json:"notifications"`
	Watchlist        []string         `json:"watchlist"`
	Ratings          map[string]int   `json:"ratings"`
	GenrePreferences GenrePreferences `json:"genre_preferences"`
}

// ProfileUpdate carries the optional fields of an edit. Nil means unchanged.
type ProfileUpdate struct {
	Email            *string
	Password         *string
	Genres           []string
	GenrePreferences GenrePreferences
}
