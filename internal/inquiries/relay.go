package inquiries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/adspot-dev/adspot/internal/models"
)

// FieldError is one validation error reported by the form relay
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// RelayError is returned when the relay rejected the submission. Retrying
// the same payload will not help.
type RelayError struct {
	StatusCode int
	Errors     []FieldError
}

func (e *RelayError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if fe.Field != "" {
			msgs = append(msgs, fe.Field+": "+fe.Message)
		} else {
			msgs = append(msgs, fe.Message)
		}
	}
	return fmt.Sprintf("relay rejected submission (HTTP %d): %s", e.StatusCode, strings.Join(msgs, "; "))
}

// Relay posts inquiries to an external form-handling endpoint
type Relay struct {
	url        string
	httpClient *http.Client
	backoff    func() retry.Backoff
}

// RelayOption configures a Relay
type RelayOption func(*Relay)

// WithHTTPClient sets the HTTP client used for relay requests
func WithHTTPClient(c *http.Client) RelayOption {
	return func(r *Relay) { r.httpClient = c }
}

// WithBackoff sets the retry policy for transient failures
func WithBackoff(fn func() retry.Backoff) RelayOption {
	return func(r *Relay) { r.backoff = fn }
}

// NewRelay creates a relay client for endpoint
func NewRelay(endpoint string, opts ...RelayOption) *Relay {
	r := &Relay{
		url:        endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		backoff: func() retry.Backoff {
			b := retry.NewExponential(500 * time.Millisecond)
			b = retry.WithCappedDuration(10*time.Second, b)
			return retry.WithMaxRetries(3, b)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Send posts one inquiry as a form. Network errors and 5xx responses are
// retried; a response carrying field errors is returned as *RelayError.
func (r *Relay) Send(ctx context.Context, inq *models.Inquiry) error {
	form := url.Values{}
	form.Set("name", inq.Name)
	form.Set("email", inq.Email)
	form.Set("contactNumber", inq.ContactNumber)
	form.Set("company", inq.Company)
	form.Set("message", inq.Message)
	body := form.Encode()

	return retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		err := r.post(ctx, body)
		var relayErr *RelayError
		if err == nil || errors.As(err, &relayErr) {
			return err
		}
		return retry.RetryableError(err)
	})
}

func (r *Relay) post(ctx context.Context, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		var payload struct {
			Errors []FieldError `json:"errors"`
			Error  string       `json:"error"`
		}
		if json.Unmarshal(respBody, &payload) == nil {
			if len(payload.Errors) > 0 {
				return &RelayError{StatusCode: resp.StatusCode, Errors: payload.Errors}
			}
			if payload.Error != "" {
				return &RelayError{StatusCode: resp.StatusCode, Errors: []FieldError{{Message: payload.Error}}}
			}
		}
		return &RelayError{
			StatusCode: resp.StatusCode,
			Errors:     []FieldError{{Message: "An unknown error occurred on submission."}},
		}
	}

	return fmt.Errorf("relay returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
}
