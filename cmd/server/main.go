package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/adspot-dev/adspot/internal/config"
	"github.com/adspot-dev/adspot/internal/logger"
	"github.com/adspot-dev/adspot/internal/media"
	"github.com/adspot-dev/adspot/internal/server"
	"github.com/adspot-dev/adspot/internal/suggest"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	// Optional integrations: the site still serves the catalog without them
	opts := integrations(context.Background(), cfg, log)

	// Database, event bus and task client come from cfg inside New
	srv, err := server.New(cfg, log, version, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().
		Str("version", version).
		Str("port", cfg.HTTP.Port).
		Bool("relay", cfg.Relay.URL != "").
		Bool("nats", cfg.Events.NATSURL != "").
		Msg("Starting AdSpot server...")

	// Blocks until SIGINT/SIGTERM, then drains requests and admin streams
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func integrations(ctx context.Context, cfg *config.Config, log zerolog.Logger) []server.Option {
	var opts []server.Option

	if cfg.AI.APIKey == "" {
		log.Info().Msg("GEMINI_API_KEY not set - location suggestions disabled")
	} else if gen, err := suggest.NewGenAIGenerator(ctx, cfg.AI.APIKey, cfg.AI.Model); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize GenAI client - location suggestions disabled")
	} else {
		opts = append(opts, server.WithGenerator(gen))
	}

	if cfg.Media.Bucket == "" {
		log.Info().Msg("MEDIA_BUCKET not set - image uploads disabled")
	} else if store, err := media.NewStore(ctx, cfg.Media.Bucket, cfg.Media.Region, cfg.Media.Endpoint, cfg.Media.PublicBaseURL); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize media store - image uploads disabled")
	} else {
		log.Info().Str("bucket", cfg.Media.Bucket).Msg("Billboard images stored in S3")
		opts = append(opts, server.WithImageStore(store))
	}

	return opts
}
