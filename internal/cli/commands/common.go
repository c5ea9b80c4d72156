package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adspot-dev/adspot/internal/config"
	"github.com/adspot-dev/adspot/internal/database"
	"github.com/adspot-dev/adspot/internal/events"
	"github.com/adspot-dev/adspot/internal/logger"
)

// Env is what the local admin commands operate on
type Env struct {
	DB     *gorm.DB
	Events events.Publisher // nil when no event bus is configured
	Logger zerolog.Logger
	Out    io.Writer
}

// Option overrides part of the command environment
type Option func(*Env)

// WithDB makes commands use db instead of opening DATABASE_URL
func WithDB(db *gorm.DB) Option {
	return func(e *Env) { e.DB = db }
}

// WithPublisher sets where change events are published
func WithPublisher(p events.Publisher) Option {
	return func(e *Env) { e.Events = p }
}

// WithOutput redirects command output
func WithOutput(w io.Writer) Option {
	return func(e *Env) { e.Out = w }
}

// openEnv loads the server configuration and opens whatever the options did
// not supply. The returned function releases what was opened here.
func openEnv(opts ...Option) (*Env, func(), error) {
	env := &Env{Out: os.Stdout, Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(env)
	}
	if env.DB != nil {
		return env, func() {}, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	env.Logger = logger.New(os.Stderr, "console").Level(zerolog.WarnLevel)

	db, err := database.Open(cfg.Database.URL, env.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database %s: %w", cfg.Database.URL, err)
	}
	env.DB = db

	var bus *events.NATSBus
	if env.Events == nil && cfg.Events.NATSURL != "" {
		// Running servers learn about role changes made here
		bus, err = events.NewNATSBus(cfg.Events.NATSURL)
		if err != nil {
			env.Logger.Warn().Err(err).Msg("Failed to connect to NATS - change events will not be published")
		} else {
			env.Events = bus
		}
	}

	release := func() {
		if bus != nil {
			_ = bus.Close()
		}
		database.Close(db, zerolog.Nop())
	}
	return env, release, nil
}
