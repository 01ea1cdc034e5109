// Package main provides the player entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jambox/internal/app/player"
	"github.com/osa030/jambox/internal/infra/config"
	"github.com/osa030/jambox/internal/infra/device"
	"github.com/osa030/jambox/internal/infra/jamendo"
	"github.com/osa030/jambox/internal/infra/logger"
	"github.com/osa030/jambox/internal/infra/storage"
)

var (
	app        = kingpin.New("jambox", "Jamendo playlist player")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()
	search     = app.Flag("search", "Fetch the catalog by search term instead of pagination").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stderr",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}
	if *search != "" {
		cfg.Jamendo.Search = *search
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

// run wires the player together and hands control to the command loop.
// Using a separate function ensures defer statements run even when
// returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	catalog, err := jamendo.New(jamendo.Config{
		ClientID: cfg.Jamendo.ClientID,
		BaseURL:  cfg.Jamendo.BaseURL,
		Limit:    cfg.Jamendo.Limit,
		Offset:   cfg.Jamendo.Offset,
		Search:   cfg.Jamendo.Search,
	})
	if err != nil {
		return fmt.Errorf("failed to create catalog client: %w", err)
	}

	storagePath, err := cfg.Storage.Path()
	if err != nil {
		return fmt.Errorf("invalid storage settings: %w", err)
	}
	st, err := storage.Open(cfg.Storage.Type, storagePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer st.Close()

	dev, err := device.NewSpeaker(time.Duration(cfg.Playback.ProgressIntervalMs) * time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to initialize audio device: %w", err)
	}
	defer dev.Close()

	store := player.NewStore(catalog, st)
	store.FetchPlaylist(ctx)
	if store.Playlist().IsEmpty() {
		zlog.Warn().Msg("Catalog is empty; playback commands will have nothing to play")
	}

	ctrl := player.NewController(store, dev)
	ctrl.Initialize()
	defer ctrl.Close()

	return runLoop(ctx, store, ctrl)
}
