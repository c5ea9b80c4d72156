package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/adspot-dev/adspot/internal/inquiries"
	"github.com/adspot-dev/adspot/internal/tasks"
)

// HandleForwardInquiry delivers one stored inquiry to the form relay.
// Rejections by the relay and exhausted attempts are not retried.
func HandleForwardInquiry(ctx context.Context, t *asynq.Task, svc *inquiries.Service, maxAttempts int, logger zerolog.Logger) error {
	payload, err := tasks.ParseTaskPayload(t)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w: %w", err, asynq.SkipRetry)
	}

	log := logger.With().Str("inquiry_id", payload.InquiryID).Logger()

	inq, err := svc.Get(ctx, payload.InquiryID)
	if err != nil {
		if errors.Is(err, inquiries.ErrNotFound) {
			log.Warn().Msg("Inquiry no longer exists, dropping forward task")
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	if inq.ForwardedAt != nil {
		log.Debug().Msg("Inquiry already forwarded")
		return nil
	}
	if inq.RejectedAt != nil {
		log.Debug().Msg("Inquiry was rejected by the relay, not resending")
		return fmt.Errorf("%w: %w", inquiries.ErrRejected, asynq.SkipRetry)
	}
	if inq.ForwardAttempts >= maxAttempts {
		log.Warn().
			Int("attempts", inq.ForwardAttempts).
			Str("last_error", inq.LastForwardError).
			Msg("Inquiry reached max forward attempts")
		return fmt.Errorf("inquiry %s reached %d forward attempts: %w", inq.ID, maxAttempts, asynq.SkipRetry)
	}

	err = svc.Forward(ctx, payload.InquiryID)
	if err == nil {
		return nil
	}

	var relayErr *inquiries.RelayError
	switch {
	case errors.As(err, &relayErr):
		log.Warn().Err(err).Msg("Relay rejected inquiry")
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	case errors.Is(err, inquiries.ErrRelayNotConfigured):
		log.Debug().Msg("Form relay not configured, inquiry stays stored only")
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	default:
		log.Error().Err(err).Int("attempt", inq.ForwardAttempts+1).Msg("Failed to forward inquiry")
		return err
	}
}

// HandleSweepInquiries re-enqueues forwards for inquiries the relay has not
// accepted yet
func HandleSweepInquiries(ctx context.Context, svc *inquiries.Service, enq inquiries.Enqueuer, maxAttempts int, logger zerolog.Logger) error {
	const batchSize = 100

	ids, err := svc.PendingForward(ctx, maxAttempts, batchSize)
	if err != nil {
		return err
	}

	enqueued := 0
	for _, id := range ids {
		if err := enq.EnqueueForward(ctx, id); err != nil {
			logger.Error().Err(err).Str("inquiry_id", id).Msg("Failed to enqueue forward task")
			continue
		}
		enqueued++
	}

	logger.Info().
		Int("pending", len(ids)).
		Int("enqueued", enqueued).
		Msg("Inquiry sweep finished")
	return nil
}
