// Package spotify provides a client for the Spotify API.
package spotify

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/osa030/releasebox/internal/domain/release"
)

// Client is a Spotify API client.
type Client struct {
	client     *spotify.Client
	market     string
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	Market       string
}

// albumGroups maps include-group names to Spotify album types.
var albumGroups = map[string]spotify.AlbumType{
	"album":       spotify.AlbumTypeAlbum,
	"single":      spotify.AlbumTypeSingle,
	"appears_on":  spotify.AlbumTypeAppearsOn,
	"compilation": spotify.AlbumTypeCompilation,
}

// New creates a new Spotify client using the client credentials flow.
// Artist catalogs are public, so no user token is needed.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify credentials are required")
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	// HTTP client with automatic token refresh
	httpClient := creds.Client(ctx)
	client := spotify.New(httpClient)

	market := cfg.Market
	if market == "" {
		market = "JP"
	}

	return &Client{
		client:     client,
		market:     market,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// GetArtistReleases retrieves an artist's albums and converts each one into a
// release descriptor. groups selects album types ("album", "single",
// "compilation", "appears_on"); empty means albums and singles.
func (c *Client) GetArtistReleases(ctx context.Context, artist string, groups []string) ([]release.Descriptor, error) {
	artistID := extractArtistID(artist)
	if artistID == "" {
		return nil, errors.New("invalid artist reference")
	}

	types, err := albumTypes(groups)
	if err != nil {
		return nil, err
	}

	albums, err := c.getArtistAlbums(ctx, artistID, types)
	if err != nil {
		return nil, err
	}

	descriptors := make([]release.Descriptor, 0, len(albums))
	for i := range albums {
		tracks, err := c.getAlbumTracks(ctx, albums[i].ID)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get tracks of album %s", albums[i].ID)
		}
		descriptors = append(descriptors, convertAlbum(&albums[i], tracks))
	}

	return descriptors, nil
}

func (c *Client) getArtistAlbums(ctx context.Context, artistID string, types []spotify.AlbumType) ([]spotify.SimpleAlbum, error) {
	var albums []spotify.SimpleAlbum
	offset := 0
	limit := 50

	for {
		var page *spotify.SimpleAlbumPage
		err := c.retry(func() error {
			p, err := c.client.GetArtistAlbums(ctx, spotify.ID(artistID), types,
				spotify.Limit(limit),
				spotify.Offset(offset),
				spotify.Market(c.market),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get artist albums")
		}

		albums = append(albums, page.Albums...)

		if len(page.Albums) < limit {
			break
		}
		offset += limit
	}

	return albums, nil
}

func (c *Client) getAlbumTracks(ctx context.Context, albumID spotify.ID) ([]spotify.SimpleTrack, error) {
	var tracks []spotify.SimpleTrack
	offset := 0
	limit := 50

	for {
		var page *spotify.SimpleTrackPage
		err := c.retry(func() error {
			p, err := c.client.GetAlbumTracks(ctx, albumID,
				spotify.Limit(limit),
				spotify.Offset(offset),
				spotify.Market(c.market),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get album tracks")
		}

		tracks = append(tracks, page.Tracks...)

		if len(page.Tracks) < limit {
			break
		}
		offset += limit
	}

	return tracks, nil
}

// convertAlbum converts a Spotify album and its tracks into a release descriptor.
func convertAlbum(a *spotify.SimpleAlbum, tracks []spotify.SimpleTrack) release.Descriptor {
	var cover string
	if len(a.Images) > 0 {
		cover = a.Images[0].URL
	}

	// Year- and month-precision dates are expanded to the first instant of the period.
	var releaseDate string
	if a.ReleaseDate != "" {
		releaseDate = release.FormatReleaseDate(a.ReleaseDateTime())
	}

	descTracks := make([]release.TrackDescriptor, 0, len(tracks))
	for _, t := range tracks {
		descTracks = append(descTracks, release.TrackDescriptor{
			Title:    t.Name,
			AudioURL: trackAudioURL(&t),
		})
	}

	return release.Descriptor{
		Title:       a.Name,
		ReleaseDate: releaseDate,
		CoverURL:    cover,
		Type:        strings.ToLower(a.AlbumType),
		Tracks:      descTracks,
		Origin:      "spotify:album:" + string(a.ID),
	}
}

// trackAudioURL prefers the preview clip, falling back to the track page.
func trackAudioURL(t *spotify.SimpleTrack) string {
	if t.PreviewURL != "" {
		return t.PreviewURL
	}
	if u, ok := t.ExternalURLs["spotify"]; ok && u != "" {
		return u
	}
	if t.ID != "" {
		return GetTrackURL(string(t.ID))
	}
	return ""
}

// GetTrackURL returns the Spotify URL for a track.
func GetTrackURL(trackID string) string {
	return "https://open.spotify.com/track/" + trackID
}

func albumTypes(groups []string) ([]spotify.AlbumType, error) {
	if len(groups) == 0 {
		return []spotify.AlbumType{spotify.AlbumTypeAlbum, spotify.AlbumTypeSingle}, nil
	}
	types := make([]spotify.AlbumType, 0, len(groups))
	for _, g := range groups {
		t, ok := albumGroups[strings.ToLower(strings.TrimSpace(g))]
		if !ok {
			return nil, errors.Newf("unsupported album group: %s", g)
		}
		types = append(types, t)
	}
	return types, nil
}

// retry retries an operation with exponential backoff.
func (c *Client) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// extractArtistID extracts the artist ID from a Spotify artist URL or URI.
func extractArtistID(input string) string {
	input = strings.TrimSpace(input)
	// Handle Spotify URI format: spotify:artist:ARTIST_ID
	if strings.HasPrefix(input, "spotify:artist:") {
		return strings.TrimPrefix(input, "spotify:artist:")
	}

	// Handle URL format: https://open.spotify.com/artist/ARTIST_ID or https://open.spotify.com/intl-XX/artist/ARTIST_ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/artist/") {
		parts := strings.Split(input, "/artist/")
		if len(parts) >= 2 {
			id := strings.Split(parts[len(parts)-1], "?")[0]
			id = strings.TrimRight(id, "/")
			return id
		}
	}

	// Assume it's already an artist ID
	return input
}
