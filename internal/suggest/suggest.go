// Package suggest asks a language model for billboard locations that fit a
// campaign's audience and goals.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/adspot-dev/adspot/internal/metrics"
)

var (
	ErrNotConfigured = errors.New("location suggester not configured")
	ErrEmptyResponse = errors.New("model returned no suggestions")
)

// Input describes the campaign
type Input struct {
	TargetDemographic string `json:"targetDemographic" binding:"required,min=10"`
	CampaignGoals     string `json:"campaignGoals" binding:"required,min=10"`
	ExampleBillboards string `json:"exampleBillboards"`
}

// Output is the model's answer
type Output struct {
	SuggestedLocations string `json:"suggestedLocations"`
}

// Generator turns a prompt into text
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var promptTemplate = template.Must(template.New("prompt").Parse(
	`You are an expert advertising strategist. You will suggest optimal billboard locations based on the client's target demographic and campaign goals.

Target Demographic: {{.TargetDemographic}}
Campaign Goals: {{.CampaignGoals}}
{{if .ExampleBillboards}}
Example Billboards: {{.ExampleBillboards}}
{{end}}
Suggested Billboard Locations:`))

// RenderPrompt builds the model prompt for in
func RenderPrompt(in Input) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, in); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return b.String(), nil
}

// Service validates requests and calls the generator with retries
type Service struct {
	gen      Generator
	validate *validator.Validate
	backoff  func() retry.Backoff
	logger   zerolog.Logger
}

// NewService creates a suggester. gen may be nil, in which case Suggest
// returns ErrNotConfigured.
func NewService(gen Generator, logger zerolog.Logger) *Service {
	v := validator.New()
	v.SetTagName("binding")
	return &Service{
		gen:      gen,
		validate: v,
		backoff: func() retry.Backoff {
			b := retry.NewFibonacci(time.Second)
			b = retry.WithJitterPercent(10, b)
			return retry.WithMaxRetries(2, b)
		},
		logger: logger.With().Str("component", "suggest").Logger(),
	}
}

// Enabled reports whether a generator is configured
func (s *Service) Enabled() bool {
	return s.gen != nil
}

// Suggest returns suggested locations for a campaign
func (s *Service) Suggest(ctx context.Context, in Input) (*Output, error) {
	if s.gen == nil {
		metrics.RecordSuggestion("not_configured")
		return nil, ErrNotConfigured
	}

	in.TargetDemographic = strings.TrimSpace(in.TargetDemographic)
	in.CampaignGoals = strings.TrimSpace(in.CampaignGoals)
	in.ExampleBillboards = strings.TrimSpace(in.ExampleBillboards)
	if err := s.validate.Struct(in); err != nil {
		metrics.RecordSuggestion("invalid")
		return nil, err
	}

	prompt, err := RenderPrompt(in)
	if err != nil {
		return nil, err
	}

	var text string
	attempt := 0
	err = retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		attempt++
		out, err := s.gen.Generate(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			s.logger.Warn().Err(err).Int("attempt", attempt).Msg("Suggestion generation failed")
			return retry.RetryableError(err)
		}
		if strings.TrimSpace(out) == "" {
			return retry.RetryableError(ErrEmptyResponse)
		}
		text = strings.TrimSpace(out)
		return nil
	})
	if err != nil {
		metrics.RecordSuggestion("error")
		return nil, fmt.Errorf("generating suggestions: %w", err)
	}

	metrics.RecordSuggestion("ok")
	return &Output{SuggestedLocations: text}, nil
}
