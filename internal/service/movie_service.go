package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"movie-discovery-weather-recommender/internal/cache"
	"movie-discovery-weather-recommender/internal/catalog"
	"movie-discovery-weather-recommender/internal/models"
	"movie-discovery-weather-recommender/internal/tmdb"
)

// NoSearchResultsMessage accompanies an empty search result.
const NoSearchResultsMessage = "No movies found matching the search criteria."

// ErrMetadataUnavailable is returned when the metadata service cannot answer.
var ErrMetadataUnavailable = errors.New("movie metadata service unavailable")

// MetadataFetcher returns third-party details for a title.
type MetadataFetcher interface {
	Details(ctx context.Context, title string, year int) (*models.MovieDetails, error)
}

// MovieService serves catalog search and movie details.
type MovieService struct {
	catalog  *catalog.Catalog
	index    *catalog.SearchIndex
	metadata MetadataFetcher
	cache    *cache.Client
	cacheTTL time.Duration
}

func NewMovieService(c *catalog.Catalog, metadata MetadataFetcher, cc *cache.Client, cacheTTL time.Duration) *MovieService {
	return &MovieService{
		catalog:  c,
		index:    catalog.NewSearchIndex(c),
		metadata: metadata,
		cache:    cc,
		cacheTTL: cacheTTL,
	}
}

// Search returns catalog titles whose clean title or genres contain query.
func (s *MovieService) Search(query string) *models.SearchResponse {
	results := s.index.Search(query)
	resp := &models.SearchResponse{Query: query, Results: results}
	if len(results) == 0 {
		resp.Results = []string{}
		resp.Message = NoSearchResultsMessage
	}
	return resp
}

// Details returns metadata for a raw catalog title such as "Heat (1995)".
// Titles outside the catalog are looked up by their own clean title and year.
func (s *MovieService) Details(ctx context.Context, title string) (*models.MovieDetails, error) {
	title = strings.TrimSpace(title)
	key := "details:" + title
	if d, ok := cache.GetJSON[models.MovieDetails](ctx, s.cache, "details", key); ok {
		return &d, nil
	}

	name, year := catalog.CleanTitle(title), 0
	if m, ok := s.catalog.Lookup(title); ok {
		name, year = m.CleanTitle, m.Year
	} else if y, ok := catalog.ExtractYear(title); ok {
		year = y
	}

	d, err := s.metadata.Details(ctx, name, year)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			return nil, err
		}
		return nil, errors.Join(ErrMetadataUnavailable, err)
	}
	cache.SetJSON(ctx, s.cache, key, d, s.cacheTTL)
	return d, nil
}

// CatalogSize returns the number of catalog rows.
func (s *MovieService) CatalogSize() int { return s.catalog.Len() }
