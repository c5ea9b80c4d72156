package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adspot-dev/adspot/internal/models"
)

// DefaultForwardSchedule is used until an administrator sets one
const DefaultForwardSchedule = "*/15 * * * *"

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// SweepEnqueuer schedules an inquiry sweep
type SweepEnqueuer interface {
	EnqueueSweep(ctx context.Context) error
}

// NextRun returns the first time after from that matches a standard
// 5-field cron expression
func NextRun(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := scheduleParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q: %w", cronExpr, err)
	}
	return schedule.Next(from), nil
}

// StartForwardScheduler runs a periodic check (every minute) for due inquiry sweeps
func StartForwardScheduler(ctx context.Context, enq SweepEnqueuer, db *gorm.DB, logger zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	// Run immediately on startup, then every minute
	checkAndEnqueueSweep(ctx, enq, db, time.Now(), logger)

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			checkAndEnqueueSweep(ctx, enq, db, now, logger)
		}
	}
}

func checkAndEnqueueSweep(ctx context.Context, enq SweepEnqueuer, db *gorm.DB, now time.Time, logger zerolog.Logger) bool {
	// Load the singleton config
	var config models.Config
	err := db.WithContext(ctx).First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug().Msg("No config found - skipping forward sweep check")
			return false
		}
		logger.Error().Err(err).Msg("Failed to query config for forward sweep")
		return false
	}

	if config.ForwardSchedule == "" {
		logger.Debug().Msg("No forward schedule configured")
		return false
	}

	if config.NextForwardAt != nil && config.NextForwardAt.After(now) {
		logger.Debug().
			Time("next_forward_at", *config.NextForwardAt).
			Msg("Forward sweep not due yet")
		return false
	}

	next, err := NextRun(config.ForwardSchedule, now)
	if err != nil {
		logger.Error().Err(err).Str("config_id", config.ID).Msg("Stored forward schedule is invalid")
		return false
	}

	if err := enq.EnqueueSweep(ctx); err != nil {
		logger.Error().Err(err).Str("config_id", config.ID).Msg("Failed to enqueue forward sweep")
		return false
	}

	// Advance NextForwardAt immediately so the next tick does not sweep again
	updates := map[string]any{"next_forward_at": next, "last_forward_at": now}
	if err := db.WithContext(ctx).Model(&config).Updates(updates).Error; err != nil {
		logger.Error().Err(err).Str("config_id", config.ID).Msg("Failed to update next_forward_at")
	} else {
		logger.Info().
			Str("config_id", config.ID).
			Time("next_forward_at", next).
			Msg("Forward sweep enqueued")
	}
	return true
}
