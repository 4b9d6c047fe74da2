package release

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(c Catalog) []string {
	out := make([]string, len(c))
	for i, r := range c {
		out[i] = r.Title
	}
	return out
}

func TestAssemble(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(title string, offset time.Duration) Release {
		return Release{
			Title:       title,
			ReleaseDate: base.Add(offset),
			Tracks:      []Track{{Title: title + " track"}},
		}
	}

	tests := []struct {
		name     string
		input    []Release
		expected []string
	}{
		{
			name:     "empty",
			input:    nil,
			expected: []string{},
		},
		{
			name:     "already descending",
			input:    []Release{mk("c", 3*time.Hour), mk("b", 2*time.Hour), mk("a", time.Hour)},
			expected: []string{"c", "b", "a"},
		},
		{
			name:     "arrival order is irrelevant",
			input:    []Release{mk("a", time.Hour), mk("c", 3*time.Hour), mk("b", 2*time.Hour)},
			expected: []string{"c", "b", "a"},
		},
		{
			name:     "ties keep input order",
			input:    []Release{mk("x", time.Hour), mk("y", time.Hour), mk("newest", 5*time.Hour), mk("z", time.Hour)},
			expected: []string{"newest", "x", "y", "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Assemble(tt.input)
			assert.Equal(t, tt.expected, titles(c))
		})
	}
}

func TestAssemble_DoesNotModifyInput(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	input := []Release{
		{Title: "old", ReleaseDate: base},
		{Title: "new", ReleaseDate: base.Add(time.Hour)},
	}

	_ = Assemble(input)
	assert.Equal(t, "old", input[0].Title)
	assert.Equal(t, "new", input[1].Title)
}

func TestCatalog_Playable(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := Assemble([]Release{
		{Title: "tomorrow", ReleaseDate: now.Add(24 * time.Hour)},
		{Title: "yesterday", ReleaseDate: now.Add(-24 * time.Hour)},
	})

	assert.Equal(t, []bool{false, true}, c.Playable(now))
	assert.Equal(t, 1, c.UpcomingCount(now))
}

func TestCatalog_At(t *testing.T) {
	c := Catalog{{Title: "only"}}

	r, ok := c.At(0)
	require.True(t, ok)
	assert.Equal(t, "only", r.Title)

	_, ok = c.At(1)
	assert.False(t, ok)
	_, ok = c.At(-1)
	assert.False(t, ok)
}
