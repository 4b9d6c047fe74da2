// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/releasebox/internal/api/connect"
	"github.com/osa030/releasebox/internal/app/catalog"
	"github.com/osa030/releasebox/internal/app/source"
	"github.com/osa030/releasebox/internal/domain/release"
	"github.com/osa030/releasebox/internal/infra/config"
	"github.com/osa030/releasebox/internal/infra/logger"
	"github.com/osa030/releasebox/internal/infra/spotify"
)

var (
	app        = kingpin.New("releasebox-server", "releasebox catalog and playback server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// check command
	checkCmd = app.Command("check", "Run one load cycle, print the catalog and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == checkCmd.FullCommand() {
		if err := check(cfg); err != nil {
			zlog.Error().Msgf("Check failed: %v", err)
			os.Exit(1)
		}
		return
	}

	// Run server (defer ensures shutdown hook is called)
	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// newManager builds the release sources and the catalog manager.
func newManager(ctx context.Context, cfg *config.Config) (*catalog.Manager, error) {
	var artistCatalog source.ArtistCatalog
	if cfg.HasSource(config.SourceSpotify) {
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Spotify client")
		}
		artistCatalog = client
	}

	sources, err := source.NewSourcesFromConfig(cfg, filepath.Dir(*configPath), artistCatalog, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create release sources")
	}
	if len(sources) == 0 {
		zlog.Warn().Msg("No release sources configured, catalog will be empty")
	}

	return catalog.NewManager(cfg, sources), nil
}

// check runs a single load cycle and prints what was loaded.
func check(cfg *config.Config) error {
	ctx := context.Background()

	manager, err := newManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	report, err := manager.Load(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	fmt.Printf("Artist: %s\n", cfg.Artist.Name)
	fmt.Printf("Sources: %d (failed: %d), invalid entries: %d\n", report.Sources, report.FailedSources, report.InvalidEntries)
	fmt.Printf("Releases: %d, queue length: %d\n", report.Releases, report.QueueLength)
	for i, rel := range manager.Catalog() {
		state := "unlocked"
		if rel.IsLocked(now) {
			state = "locked"
		}
		fmt.Printf("  [%d] %s  %s  %s  (%d tracks)\n", i, release.FormatReleaseDate(rel.ReleaseDate), rel.Title, state, rel.TrackCount())
	}
	if report.Target != nil {
		fmt.Printf("Next unlock: %s at %s\n", report.Target.Title, release.FormatReleaseDate(report.Target.ReleaseDate))
	}
	return nil
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	manager, err := newManager(ctx, cfg)
	if err != nil {
		return err
	}

	interceptors := connect.WithInterceptors(apiconnect.NewLoggingInterceptor())

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewCatalogServiceHandler(apiconnect.NewCatalogService(manager), interceptors))
	mux.Handle(apiconnect.NewPlayerServiceHandler(apiconnect.NewPlayerService(manager), interceptors))

	serverAddr := cfg.Server.Addr
	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    serverAddr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	// Load the catalog before accepting requests
	if err := manager.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start catalog manager")
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", serverAddr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		manager.Close()
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close the manager first to end notification streams
	manager.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
