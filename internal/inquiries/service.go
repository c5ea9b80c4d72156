// Package inquiries stores contact form submissions and forwards them to
// the external form relay.
package inquiries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adspot-dev/adspot/internal/metrics"
	"github.com/adspot-dev/adspot/internal/models"
)

var (
	ErrNotFound           = errors.New("inquiry not found")
	ErrRelayNotConfigured = errors.New("form relay not configured")
	ErrRejected           = errors.New("inquiry was rejected by the form relay")
)

// SubmittedLayout is how submission times are shown to administrators
const SubmittedLayout = "Jan 2, 2006 at 3:04 PM"

// Input is a contact form submission
type Input struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	ContactNumber string `json:"contactNumber"`
	Company       string `json:"company"`
	Message       string `json:"message" binding:"required"`
}

// Enqueuer schedules a forward of a stored inquiry
type Enqueuer interface {
	EnqueueForward(ctx context.Context, inquiryID string) error
}

// Sender delivers an inquiry to the form relay
type Sender interface {
	Send(ctx context.Context, inq *models.Inquiry) error
}

// Service stores and forwards inquiries
type Service struct {
	db       *gorm.DB
	enqueuer Enqueuer
	relay    Sender
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithEnqueuer makes Submit schedule a forward for each stored inquiry
func WithEnqueuer(e Enqueuer) Option {
	return func(s *Service) { s.enqueuer = e }
}

// WithRelay sets where Forward delivers inquiries
func WithRelay(r Sender) Option {
	return func(s *Service) { s.relay = r }
}

func NewService(db *gorm.DB, logger zerolog.Logger, opts ...Option) *Service {
	v := validator.New()
	v.SetTagName("binding")
	s := &Service{
		db:       db,
		validate: v,
		logger:   logger.With().Str("component", "inquiries").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and stores an inquiry, then schedules its forward. A
// failure to enqueue is logged; the sweep picks the inquiry up later.
func (s *Service) Submit(ctx context.Context, in Input) (*models.Inquiry, error) {
	if err := s.validate.Struct(in); err != nil {
		metrics.RecordInquiry("invalid")
		return nil, err
	}

	inq := models.Inquiry{
		Name:          strings.TrimSpace(in.Name),
		Email:         strings.TrimSpace(in.Email),
		ContactNumber: strings.TrimSpace(in.ContactNumber),
		Company:       strings.TrimSpace(in.Company),
		Message:       strings.TrimSpace(in.Message),
		SubmittedAt:   s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&inq).Error; err != nil {
		metrics.RecordInquiry("error")
		return nil, fmt.Errorf("failed to store inquiry: %w", err)
	}
	metrics.RecordInquiry("stored")

	s.logger.Info().Str("inquiry_id", inq.ID).Str("email", inq.Email).Msg("Inquiry received")

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueForward(ctx, inq.ID); err != nil {
			s.logger.Warn().Err(err).Str("inquiry_id", inq.ID).Msg("Failed to enqueue inquiry forward")
		}
	}
	return &inq, nil
}

// List returns every inquiry, newest first
func (s *Service) List(ctx context.Context) ([]models.Inquiry, error) {
	var list []models.Inquiry
	if err := s.db.WithContext(ctx).Order("submitted_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	return list, nil
}

// Get returns one inquiry
func (s *Service) Get(ctx context.Context, id string) (*models.Inquiry, error) {
	var inq models.Inquiry
	if err := models.FindByID(s.db.WithContext(ctx), id, &inq); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load inquiry: %w", err)
	}
	return &inq, nil
}

// FormatSubmitted renders a submission time, or "No date" when unset
func FormatSubmitted(t time.Time) string {
	if t.IsZero() {
		return "No date"
	}
	return t.Format(SubmittedLayout)
}

// Forward delivers one inquiry to the relay and records the outcome. An
// inquiry that was already forwarded is left alone. A relay rejection is
// final: the inquiry is marked rejected and later calls return ErrRejected.
func (s *Service) Forward(ctx context.Context, id string) error {
	if s.relay == nil {
		return ErrRelayNotConfigured
	}

	inq, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if inq.ForwardedAt != nil {
		return nil
	}
	if inq.RejectedAt != nil {
		return ErrRejected
	}

	sendErr := s.relay.Send(ctx, inq)

	var relayErr *RelayError
	now := s.now().UTC()
	updates := map[string]any{"forward_attempts": gorm.Expr("forward_attempts + 1")}
	switch {
	case sendErr == nil:
		updates["forwarded_at"] = &now
		updates["last_forward_error"] = ""
	case errors.As(sendErr, &relayErr):
		updates["rejected_at"] = &now
		updates["last_forward_error"] = sendErr.Error()
	default:
		updates["last_forward_error"] = sendErr.Error()
	}
	if err := s.db.WithContext(ctx).Model(&models.Inquiry{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to record forward attempt: %w", err)
	}

	if sendErr != nil {
		if relayErr != nil {
			metrics.RecordInquiry("rejected")
		} else {
			metrics.RecordInquiry("forward_failed")
		}
		return sendErr
	}

	metrics.RecordInquiry("forwarded")
	s.logger.Info().Str("inquiry_id", id).Msg("Inquiry forwarded")
	return nil
}

// PendingForward returns ids of inquiries not yet forwarded or rejected with
// fewer than maxAttempts attempts, oldest first.
func (s *Service) PendingForward(ctx context.Context, maxAttempts, limit int) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Inquiry{}).
		Where("forwarded_at IS NULL AND rejected_at IS NULL AND forward_attempts < ?", maxAttempts).
		Order("submitted_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find pending inquiries: %w", err)
	}
	return ids, nil
}
