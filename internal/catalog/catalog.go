// Package catalog holds the immutable movie table the recommender and search
// run against, and the loaders that build it from CSV or PostgreSQL.
package catalog

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"movie-discovery-weather-recommender/internal/models"
)

var (
	yearPattern      = regexp.MustCompile(`\((\d{4})\)`)
	yearStripPattern = regexp.MustCompile(`\s*\(\d{4}\)`)
)

// LoadError reports a catalog source that is missing or cannot be parsed.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load catalog %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Row is a raw catalog row before derivation.
type Row struct {
	ID     int
	Title  string
	Genres string
}

// Catalog is a read-only table of movies. It is never mutated after New.
type Catalog struct {
	movies  []models.MovieRecord
	byTitle map[string][]int
}

// ExtractYear returns the first parenthesized four-digit year in title.
func ExtractYear(title string) (int, bool) {
	m := yearPattern.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// CleanTitle removes every parenthesized year from title.
func CleanTitle(title string) string {
	return strings.TrimSpace(yearStripPattern.ReplaceAllString(title, ""))
}

// New derives year and clean title for every row.
func New(rows []Row) *Catalog {
	c := &Catalog{
		movies:  make([]models.MovieRecord, 0, len(rows)),
		byTitle: make(map[string][]int, len(rows)),
	}
	for _, r := range rows {
		year, ok := ExtractYear(r.Title)
		c.byTitle[r.Title] = append(c.byTitle[r.Title], len(c.movies))
		c.movies = append(c.movies, models.MovieRecord{
			ID:         r.ID,
			Title:      r.Title,
			Genres:     r.Genres,
			Year:       year,
			HasYear:    ok,
			CleanTitle: CleanTitle(r.Title),
		})
	}
	return c
}

// Empty returns a catalog with no movies.
func Empty() *Catalog { return New(nil) }

// Movies returns the catalog rows in source order. Callers must not modify it.
func (c *Catalog) Movies() []models.MovieRecord {
	if c == nil {
		return nil
	}
	return c.movies
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.movies)
}

// Lookup returns the first row whose raw title equals title.
func (c *Catalog) Lookup(title string) (models.MovieRecord, bool) {
	if c == nil {
		return models.MovieRecord{}, false
	}
	idx, ok := c.byTitle[title]
	if !ok {
		return models.MovieRecord{}, false
	}
	return c.movies[idx[0]], true
}

// Load reads a CSV catalog from path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()
	return LoadReader(path, f)
}

// LoadReader parses CSV with a header row containing at least "title" and
// "genres" columns. A "movieId" column, when present, becomes MovieRecord.ID.
func LoadReader(source string, r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("missing header row")
		}
		return nil, &LoadError{Source: source, Err: err}
	}

	titleCol, genresCol, idCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "title":
			titleCol = i
		case "genres":
			genresCol = i
		case "movieid", "id":
			idCol = i
		}
	}
	if titleCol < 0 || genresCol < 0 {
		return nil, &LoadError{Source: source, Err: errors.New(`header must contain "title" and "genres" columns`)}
	}

	var rows []Row
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Source: source, Err: err}
		}
		row := Row{Title: rec[titleCol], Genres: rec[genresCol]}
		if idCol >= 0 {
			if raw := strings.TrimSpace(rec[idCol]); raw != "" {
				id, err := strconv.Atoi(raw)
				if err != nil || id <= 0 {
					line, _ := reader.FieldPos(idCol)
					return nil, &LoadError{Source: source, Err: fmt.Errorf("line %d: invalid movie id %q", line, raw)}
				}
				row.ID = id
			}
		}
		rows = append(rows, row)
	}

	slog.Info("catalog loaded", "source", source, "movies", len(rows))
	return New(rows), nil
}

// LoadFromDB reads the catalog_movies table.
func LoadFromDB(ctx context.Context, db *sql.DB) (*Catalog, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, title, genres FROM catalog_movies ORDER BY id`)
	if err != nil {
		return nil, &LoadError{Source: "postgres", Err: fmt.Errorf("query catalog: %w", err)}
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Title, &r.Genres); err != nil {
			return nil, &LoadError{Source: "postgres", Err: fmt.Errorf("scan catalog row: %w", err)}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &LoadError{Source: "postgres", Err: err}
	}

	slog.Info("catalog loaded", "source", "postgres", "movies", len(out))
	return New(out), nil
}
