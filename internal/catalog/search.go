package catalog

import "strings"

// SearchIndex answers substring queries over a Catalog.
type SearchIndex struct {
	catalog *Catalog
	titles  []string
	genres  []string
}

// NewSearchIndex precomputes lower-cased clean titles and genres.
func NewSearchIndex(c *Catalog) *SearchIndex {
	idx := &SearchIndex{catalog: c}
	for _, m := range c.Movies() {
		idx.titles = append(idx.titles, strings.ToLower(m.CleanTitle))
		idx.genres = append(idx.genres, strings.ToLower(m.Genres))
	}
	return idx
}

// Search returns the raw titles, in catalog order, whose clean title or genres
// contain query case-insensitively. A blank query matches nothing.
func (s *SearchIndex) Search(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []string
	for i, m := range s.catalog.Movies() {
		if strings.Contains(s.titles[i], q) || strings.Contains(s.genres[i], q) {
			out = append(out, m.Title)
		}
	}
	return out
}
