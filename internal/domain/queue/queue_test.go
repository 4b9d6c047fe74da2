package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/releasebox/internal/domain/release"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testCatalog() release.Catalog {
	return release.Assemble([]release.Release{
		{
			Title:         "R1",
			ReleaseDate:   now.Add(-24 * time.Hour),
			CoverImageRef: "r1.png",
			Tracks: []release.Track{
				{Title: "R1-A", AudioRef: "r1a.mp3"},
				{Title: "R1-B", AudioRef: "r1b.mp3"},
			},
		},
		{
			Title:         "R2",
			ReleaseDate:   now.Add(24 * time.Hour),
			CoverImageRef: "r2.png",
			Tracks: []release.Track{
				{Title: "R2-A", AudioRef: "r2a.mp3"},
			},
		},
	})
}

func TestBuild_GatesLockedReleases(t *testing.T) {
	c := testCatalog()
	q := Build(c, now)

	require.Len(t, q, 2)
	for _, e := range q {
		assert.Equal(t, "R1", e.ReleaseTitle)
		assert.Equal(t, 1, e.ReleaseIndex, "R1 sorts after R2 in the catalog")
		assert.Equal(t, "r1.png", e.CoverImageRef)
	}
	assert.Equal(t, "R1-A", q[0].Title)
	assert.Equal(t, 0, q[0].TrackIndex)
	assert.Equal(t, "r1b.mp3", q[1].AudioRef)
	assert.Equal(t, 1, q[1].TrackIndex)
}

func TestBuild_UnlocksWhenDatePasses(t *testing.T) {
	c := testCatalog()
	q := Build(c, now.Add(24*time.Hour))

	require.Len(t, q, 3)
	assert.Equal(t, "R2-A", q[0].Title, "newest release comes first")
	assert.Equal(t, "R1-A", q[1].Title)
	assert.Equal(t, "R1-B", q[2].Title)
}

func TestBuild_Idempotent(t *testing.T) {
	c := testCatalog()
	assert.Equal(t, Build(c, now), Build(c, now))
}

func TestBuild_EmptyCatalog(t *testing.T) {
	q := Build(nil, now)
	assert.True(t, q.IsEmpty())
	assert.NotNil(t, q)
}

func TestQueue_IndexOf(t *testing.T) {
	q := Build(testCatalog(), now)

	assert.Equal(t, 0, q.IndexOf(1, 0))
	assert.Equal(t, 1, q.IndexOf(1, 1))
	assert.Equal(t, -1, q.IndexOf(0, 0), "locked release has no entries")
	assert.Equal(t, -1, q.IndexOf(1, 5))
}

func TestQueue_Locate(t *testing.T) {
	before := Build(testCatalog(), now)
	after := Build(testCatalog(), now.Add(48*time.Hour))

	idx := after.Locate(before[1])
	require.Equal(t, 2, idx)
	assert.Equal(t, 1, after[idx].ReleaseIndex)
	assert.Equal(t, "R1-B", after[idx].Title)

	assert.Equal(t, -1, before.Locate(after[0]))
}

func TestQueue_At(t *testing.T) {
	q := Build(testCatalog(), now)

	e, ok := q.At(1)
	require.True(t, ok)
	assert.Equal(t, "R1-B", e.Title)

	_, ok = q.At(2)
	assert.False(t, ok)
	_, ok = q.At(-1)
	assert.False(t, ok)
}
