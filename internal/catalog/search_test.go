package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchIndex_Search(t *testing.T) {
	c, err := LoadReader("sample", strings.NewReader(sampleCSV))
	require.NoError(t, err)
	idx := NewSearchIndex(c)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"title substring", "toy", []string{"Toy Story (1995)"}},
		{"case insensitive", "HEAT", []string{"Heat (1995)"}},
		{"genre substring", "thriller", []string{"Heat (1995)", "Blade Runner (1982) (Final Cut) (2007)"}},
		{"year is not part of clean title", "1995", nil},
		{"surrounding spaces trimmed", "  documentary ", []string{"Untitled Project"}},
		{"no match", "western", nil},
		{"blank query", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idx.Search(tt.query))
		})
	}
}
