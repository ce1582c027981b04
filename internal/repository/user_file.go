package repository

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/goccy/go-json"

	"movie-discovery-weather-recommender/internal/models"
)

var hashPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// userRecord is the on-disk shape of one user.
type userRecord struct {
	ID               string              `json:"id,omitempty"`
	Email            string              `json:"email"`
	PasswordHash     string              `json:"password_hash"`
	LegacyPassword   string              `json:"password,omitempty"`
	Genres           []string            `json:"genres"`
	Notifications    bool                `json:"notifications"`
	Watchlist        []string            `json:"watchlist"`
	Ratings          map[string]int      `json:"ratings"`
	GenrePreferences map[string][]string `json:"genre_preferences,omitempty"`
}

// UserFile persists users as a JSON array, rewriting the whole file on save.
type UserFile struct {
	path string
}

// NewUserFile creates a repository backed by path.
func NewUserFile(path string) *UserFile {
	return &UserFile{path: path}
}

// Path returns the backing file path.
func (r *UserFile) Path() string { return r.path }

// Load reads every user. A missing file yields an empty list and no error.
func (r *UserFile) Load() ([]*models.User, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("user file not found, starting with an empty user list", "path", r.path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read user file: %w", err)
	}

	var records []userRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode user file %s: %w", r.path, err)
	}

	users := make([]*models.User, 0, len(records))
	seen := make(map[string]bool, len(records))
	seenIDs := make(map[string]bool, len(records))
	for i, rec := range records {
		hash := rec.PasswordHash
		if hash == "" {
			hash = rec.LegacyPassword
		}
		switch {
		case rec.Email == "":
			slog.Error("skipping user record without email", "index", i)
			continue
		case !hashPattern.MatchString(hash):
			slog.Error("skipping user record without a valid password hash", "index", i, "email", rec.Email)
			continue
		case seen[rec.Email]:
			slog.Error("skipping duplicate user record", "index", i, "email", rec.Email)
			continue
		}
		seen[rec.Email] = true
		if seenIDs[rec.ID] {
			slog.Warn("duplicate user id, assigning a new one", "index", i, "email", rec.Email)
			rec.ID = ""
		}
		u := models.RestoreUser(
			rec.ID, rec.Email, hash, rec.Genres, rec.Notifications,
			rec.Watchlist, rec.Ratings, rec.GenrePreferences,
		)
		seenIDs[u.ID] = true
		users = append(users, u)
	}
	return users, nil
}

// Save atomically replaces the file with users: the data is written to a temp
// file in the same directory, synced, then renamed over the target.
func (r *UserFile) Save(users []*models.User) error {
	records := make([]userRecord, 0, len(users))
	for _, u := range users {
		records = append(records, userRecord{
			ID:               u.ID,
			Email:            u.Email,
			PasswordHash:     u.PasswordHash,
			Genres:           nonNil(u.Genres),
			Notifications:    u.Notifications,
			Watchlist:        nonNil(u.Watchlist),
			Ratings:          u.Ratings,
			GenrePreferences: u.GenrePreferences,
		})
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create user file dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp user file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp user file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp user file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp user file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace user file: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
