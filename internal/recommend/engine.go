// Package recommend turns a weather description and a user's preferences into
// a small random selection of catalog titles.
package recommend

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"

	"movie-discovery-weather-recommender/internal/catalog"
	"movie-discovery-weather-recommender/internal/models"
)

// MaxRecommendations caps the size of a result.
const MaxRecommendations = 5

// NoMatchesMessage is the sentinel line shown in place of titles.
const NoMatchesMessage = "No movies found for the selected criteria."

// ErrInvalidYearFilter is returned when the year filter is not an integer.
var ErrInvalidYearFilter = errors.New("year filter must be a whole number")

// Filters narrow the candidates after the weather genres are applied. Blank
// fields are ignored.
type Filters struct {
	Genre string
	Year  string
}

// Request is one recommendation call. Decade 0 means no decade filter.
type Request struct {
	Weather          string
	GenrePreferences models.GenrePreferences
	Decade           int
	Filters          Filters
	Ratings          map[string]int
}

// Result holds the matched condition and the sampled titles.
type Result struct {
	Condition models.WeatherCondition
	Titles    []string
}

// NoMatches reports whether nothing was recommended.
func (r Result) NoMatches() bool { return len(r.Titles) == 0 }

// Option configures an Engine.
type Option func(*Engine)

// WithSampler replaces the default uniform sampler.
func WithSampler(s Sampler) Option {
	return func(e *Engine) {
		if s != nil {
			e.sampler = s
		}
	}
}

// WithRand sets the random source, mainly for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// Engine recommends titles from a fixed catalog.
type Engine struct {
	catalog *catalog.Catalog
	sampler Sampler

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

func NewEngine(c *catalog.Catalog, opts ...Option) *Engine {
	if c == nil {
		c = catalog.Empty()
	}
	e := &Engine{
		catalog: c,
		sampler: UniformSampler{},
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend runs the weather match, filters and sampling for req. An empty
// Result is a normal outcome; only a malformed year filter is an error.
func (e *Engine) Recommend(req Request) (Result, error) {
	year, hasYear, err := parseYear(req.Filters.Year)
	if err != nil {
		return Result{}, err
	}

	cond, ok := models.MatchCondition(req.Weather)
	if !ok {
		return Result{}, nil
	}
	res := Result{Condition: cond}

	wanted := lowerAll(req.GenrePreferences.For(cond))
	genreFilter := strings.ToLower(strings.TrimSpace(req.Filters.Genre))

	var candidates []Candidate
	for _, m := range e.catalog.Movies() {
		genres := strings.ToLower(m.Genres)
		if !containsAny(genres, wanted) {
			continue
		}
		if !m.HasYear {
			continue
		}
		if req.Decade != 0 && (m.Year < req.Decade || m.Year >= req.Decade+10) {
			continue
		}
		if genreFilter != "" && !strings.Contains(genres, genreFilter) {
			continue
		}
		if hasYear && m.Year != year {
			continue
		}
		candidates = append(candidates, Candidate{
			Title:  m.Title,
			Genres: m.Genres,
			Year:   m.Year,
			Rating: req.Ratings[m.Title],
		})
	}
	if len(candidates) == 0 {
		return res, nil
	}

	if req.Ratings != nil {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Rating > candidates[j].Rating
		})
	}

	e.mu.Lock()
	picked := e.sampler.Sample(e.rng, candidates, min(MaxRecommendations, len(candidates)))
	e.mu.Unlock()

	res.Titles = make([]string, len(picked))
	for i, c := range picked {
		res.Titles[i] = c.Title
	}
	return res, nil
}

func parseYear(raw string) (int, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	y, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidYearFilter, raw)
	}
	return y, true, nil
}

func lowerAll(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
