package source

import (
	"net/http"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/releasebox/internal/infra/config"
)

// NewSourcesFromConfig creates release sources from configuration, in config order.
// Relative file paths are resolved against baseDir. catalog may be nil when no
// spotify source is configured.
func NewSourcesFromConfig(cfg *config.Config, baseDir string, catalog ArtistCatalog, httpClient *http.Client) ([]Source, error) {
	if len(cfg.Releases) == 0 {
		zlog.Warn().Msg("source: no release sources configured")
	}

	sources := make([]Source, 0, len(cfg.Releases))
	for i, rcfg := range cfg.Releases {
		var src Source
		var err error
		zlog.Debug().Msgf("source: creating release source: index=%d type=%s location=%s", i+1, rcfg.Type, rcfg.Location)
		switch rcfg.Type {
		case config.SourceFile:
			p := rcfg.Location
			if !filepath.IsAbs(p) && baseDir != "" {
				p = filepath.Join(baseDir, p)
			}
			src = NewFileSource(p, Format(rcfg.Format))

		case config.SourceHTTP:
			var settings HTTPSourceConfig
			if err = decodeSettings(rcfg.Settings, &settings); err == nil {
				src = NewHTTPSource(rcfg.Location, Format(rcfg.Format), settings, httpClient)
			}

		case config.SourceSpotify:
			if catalog == nil {
				return nil, errors.Newf("spotify client is required (source index %d)", i)
			}
			var settings SpotifySourceConfig
			if err = decodeSettings(rcfg.Settings, &settings); err == nil {
				src = NewSpotifySource(catalog, settings)
			}

		default:
			return nil, errors.Newf("unsupported source type: %s (source index %d)", rcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create source (index %d, type %s)", i, rcfg.Type)
		}

		sources = append(sources, src)
		zlog.Info().Msgf("source: registered release source: index=%d name=%s", i+1, src.Name())
	}

	return sources, nil
}

func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
