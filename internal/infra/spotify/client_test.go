package spotify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"
)

func TestExtractArtistID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Spotify URI format",
			input:    "spotify:artist:0OdUWJ0sBjDrqHygGUXeCF",
			expected: "0OdUWJ0sBjDrqHygGUXeCF",
		},
		{
			name:     "Spotify URL format",
			input:    "https://open.spotify.com/artist/0OdUWJ0sBjDrqHygGUXeCF",
			expected: "0OdUWJ0sBjDrqHygGUXeCF",
		},
		{
			name:     "Spotify URL with query params",
			input:    "https://open.spotify.com/artist/0OdUWJ0sBjDrqHygGUXeCF?si=abc123",
			expected: "0OdUWJ0sBjDrqHygGUXeCF",
		},
		{
			name:     "Localized URL",
			input:    "https://open.spotify.com/intl-ja/artist/abc123",
			expected: "abc123",
		},
		{
			name:     "Trailing slash",
			input:    "https://open.spotify.com/artist/abc123/",
			expected: "abc123",
		},
		{
			name:     "Plain artist ID",
			input:    "  0OdUWJ0sBjDrqHygGUXeCF ",
			expected: "0OdUWJ0sBjDrqHygGUXeCF",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractArtistID(tt.input)
			assert.Equal(t, tt.expected, result,
				"extractArtistID(%s) should return %s", tt.input, tt.expected)
		})
	}
}

func TestAlbumTypes(t *testing.T) {
	types, err := albumTypes(nil)
	require.NoError(t, err)
	assert.Equal(t, []spotify.AlbumType{spotify.AlbumTypeAlbum, spotify.AlbumTypeSingle}, types)

	types, err = albumTypes([]string{"Compilation", " appears_on "})
	require.NoError(t, err)
	assert.Equal(t, []spotify.AlbumType{spotify.AlbumTypeCompilation, spotify.AlbumTypeAppearsOn}, types)

	_, err = albumTypes([]string{"mixtape"})
	assert.Error(t, err)
}

func TestConvertAlbum(t *testing.T) {
	album := &spotify.SimpleAlbum{
		Name:                 "Night Drive",
		ID:                   spotify.ID("album1"),
		AlbumType:            "Single",
		ReleaseDate:          "2024-03-01",
		ReleaseDatePrecision: "day",
		Images:               []spotify.Image{{URL: "https://i.scdn.co/image/large"}, {URL: "https://i.scdn.co/image/small"}},
	}
	tracks := []spotify.SimpleTrack{
		{Name: "Intro", ID: "t1", PreviewURL: "https://p.scdn.co/mp3-preview/t1"},
		{Name: "Outro", ID: "t2", ExternalURLs: map[string]string{"spotify": "https://open.spotify.com/track/t2"}},
		{Name: "Hidden", ID: "t3"},
	}

	d := convertAlbum(album, tracks)

	assert.Equal(t, "Night Drive", d.Title)
	assert.Equal(t, "2024-03-01T00:00:00Z", d.ReleaseDate)
	assert.Equal(t, "https://i.scdn.co/image/large", d.CoverURL)
	assert.Equal(t, "single", d.Type)
	assert.Equal(t, "spotify:album:album1", d.Origin)
	require.Len(t, d.Tracks, 3)
	assert.Equal(t, "https://p.scdn.co/mp3-preview/t1", d.Tracks[0].AudioURL)
	assert.Equal(t, "https://open.spotify.com/track/t2", d.Tracks[1].AudioURL)
	assert.Equal(t, "https://open.spotify.com/track/t3", d.Tracks[2].AudioURL)
}

func TestConvertAlbum_YearPrecision(t *testing.T) {
	album := &spotify.SimpleAlbum{
		Name:                 "Archive",
		ReleaseDate:          "1999",
		ReleaseDatePrecision: "year",
	}

	d := convertAlbum(album, nil)

	assert.Equal(t, "1999-01-01T00:00:00Z", d.ReleaseDate)
	assert.Empty(t, d.CoverURL)
	assert.Empty(t, d.Tracks)
}

func TestConvertAlbum_MissingDate(t *testing.T) {
	d := convertAlbum(&spotify.SimpleAlbum{Name: "Undated"}, nil)
	assert.Empty(t, d.ReleaseDate, "missing dates are left for validation to reject")
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{ClientID: "id"})
	assert.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "rate limit error with 429",
			err:      errors.New("Error 429: rate limit exceeded"),
			expected: true,
		},
		{
			name:     "rate limit text",
			err:      errors.New("rate limit exceeded"),
			expected: true,
		},
		{
			name:     "server error 500",
			err:      errors.New("Error 500: internal server error"),
			expected: true,
		},
		{
			name:     "server error 502",
			err:      errors.New("502 Bad Gateway"),
			expected: true,
		},
		{
			name:     "server error 503",
			err:      errors.New("503 Service Unavailable"),
			expected: true,
		},
		{
			name:     "server error 504",
			err:      errors.New("504 Gateway Timeout"),
			expected: true,
		},
		{
			name:     "client error 400",
			err:      errors.New("400 Bad Request"),
			expected: false,
		},
		{
			name:     "not found error",
			err:      errors.New("404 not found"),
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("something went wrong"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isRetryable(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}
