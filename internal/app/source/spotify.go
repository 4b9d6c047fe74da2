package source

import (
	"context"

	"github.com/osa030/releasebox/internal/domain/release"
)

// ArtistCatalog defines the streaming catalog operations needed by SpotifySource.
type ArtistCatalog interface {
	GetArtistReleases(ctx context.Context, artist string, groups []string) ([]release.Descriptor, error)
}

// SpotifySourceConfig holds spotify source settings.
type SpotifySourceConfig struct {
	Artist        string   `mapstructure:"artist" validate:"required"`
	IncludeGroups []string `mapstructure:"include_groups" validate:"dive,oneof=album single compilation appears_on"`
}

// SpotifySource yields one descriptor per album of an artist.
type SpotifySource struct {
	catalog ArtistCatalog
	config  SpotifySourceConfig
}

// NewSpotifySource creates a new SpotifySource.
func NewSpotifySource(catalog ArtistCatalog, cfg SpotifySourceConfig) *SpotifySource {
	return &SpotifySource{catalog: catalog, config: cfg}
}

// Name returns the source name.
func (s *SpotifySource) Name() string {
	return "spotify:" + s.config.Artist
}

// Fetch lists the artist's albums.
func (s *SpotifySource) Fetch(ctx context.Context) ([]release.Descriptor, error) {
	descriptors, err := s.catalog.GetArtistReleases(ctx, s.config.Artist, s.config.IncludeGroups)
	if err != nil {
		return nil, fetchFailure(err, s.Name())
	}
	return descriptors, nil
}
