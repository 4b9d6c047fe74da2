// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Source types
const (
	SourceFile    = "file"
	SourceHTTP    = "http"
	SourceSpotify = "spotify"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig          `yaml:"server"`
	Artist    ArtistConfig          `yaml:"artist"`
	Releases  []ReleaseSourceConfig `yaml:"releases" validate:"dive"`
	Loader    LoaderConfig          `yaml:"loader"`
	Countdown CountdownConfig       `yaml:"countdown"`
	Playback  PlaybackConfig        `yaml:"playback"`
	Spotify   SpotifyConfig         `yaml:"spotify"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// ArtistConfig represents the artist profile shown above the catalog.
type ArtistConfig struct {
	Name      string `yaml:"name" validate:"required"`
	AvatarURL string `yaml:"avatar_url"`
	BannerURL string `yaml:"banner_url"`
}

// ReleaseSourceConfig represents a single release source.
// A bare string in YAML is shorthand for a location.
type ReleaseSourceConfig struct {
	Type     string         `yaml:"type" validate:"required,oneof=file http spotify"`
	Location string         `yaml:"location" validate:"required_unless=Type spotify"`
	Format   string         `yaml:"format" validate:"omitempty,oneof=json yaml toml"`
	Settings map[string]any `yaml:"settings"`
}

// UnmarshalYAML accepts either a location string or a mapping.
func (r *ReleaseSourceConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.Location = strings.TrimSpace(node.Value)
		r.Type = inferSourceType(r.Location)
		return nil
	}

	type plain ReleaseSourceConfig
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = ReleaseSourceConfig(p)
	if r.Type == "" {
		r.Type = inferSourceType(r.Location)
	}
	return nil
}

func inferSourceType(location string) string {
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return SourceHTTP
	}
	if lower == "" {
		return ""
	}
	return SourceFile
}

// LoaderConfig represents load cycle configuration.
type LoaderConfig struct {
	FetchTimeoutSec int `yaml:"fetch_timeout_sec" default:"10" validate:"gte=1,lte=300"`
	MaxConcurrent   int `yaml:"max_concurrent" default:"4" validate:"gte=1,lte=64"`
}

// FetchTimeout returns the per-source fetch timeout.
func (l LoaderConfig) FetchTimeout() time.Duration {
	return time.Duration(l.FetchTimeoutSec) * time.Second
}

// CountdownConfig represents countdown configuration.
type CountdownConfig struct {
	TickIntervalMs int `yaml:"tick_interval_ms" default:"1000" validate:"gte=10,lte=60000"`
}

// TickInterval returns the countdown tick cadence.
func (c CountdownConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// PlaybackConfig represents playback session configuration.
type PlaybackConfig struct {
	ReloadPolicy       string `yaml:"reload_policy" default:"relocate" validate:"oneof=relocate reset"`
	EventBufferSize    int    `yaml:"event_buffer_size" default:"32" validate:"gte=1"`
	MediaCommandBuffer int    `yaml:"media_command_buffer" default:"16" validate:"gte=1"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("RELEASEBOX_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// HasSource checks if any release source of the given type is configured.
func (c *Config) HasSource(sourceType string) bool {
	for _, r := range c.Releases {
		if r.Type == sourceType {
			return true
		}
	}
	return false
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	// Spotify credentials are only needed by spotify sources
	if c.HasSource(SourceSpotify) {
		if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
			return errors.New("spotify.client_id and spotify.client_secret are required for spotify release sources")
		}
	}

	return nil
}
