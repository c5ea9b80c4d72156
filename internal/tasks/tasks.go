package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Inquiry relay tasks
	TypeForwardInquiry = "inquiry:forward"
	TypeSweepInquiries = "inquiry:sweep"
)

// TaskPayload is the common payload for all tasks
type TaskPayload struct {
	InquiryID string `json:"inquiry_id,omitempty"`
}

// NewForwardInquiryTask creates a task to deliver one inquiry to the relay
func NewForwardInquiryTask(inquiryID string) (*asynq.Task, error) {
	payload, err := json.Marshal(TaskPayload{
		InquiryID: inquiryID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeForwardInquiry, payload), nil
}

// NewSweepInquiriesTask creates a task that re-enqueues unforwarded inquiries
func NewSweepInquiriesTask() *asynq.Task {
	return asynq.NewTask(TypeSweepInquiries, nil)
}

// ParseTaskPayload parses task payload from Asynq task
func ParseTaskPayload(task *asynq.Task) (TaskPayload, error) {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}

type asynqEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer schedules inquiry tasks on an Asynq client
type Enqueuer struct {
	client      asynqEnqueuer
	maxAttempts int
}

// NewEnqueuer wraps client. maxAttempts bounds delivery attempts per task.
func NewEnqueuer(client asynqEnqueuer, maxAttempts int) *Enqueuer {
	return &Enqueuer{client: client, maxAttempts: maxAttempts}
}

// EnqueueForward schedules a forward. A forward already queued for the same
// inquiry is not duplicated.
func (e *Enqueuer) EnqueueForward(ctx context.Context, inquiryID string) error {
	task, err := NewForwardInquiryTask(inquiryID)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.TaskID("forward:"+inquiryID),
		asynq.MaxRetry(max(e.maxAttempts-1, 0)),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("failed to enqueue forward task: %w", err)
	}
	return nil
}

// EnqueueSweep schedules one sweep
func (e *Enqueuer) EnqueueSweep(ctx context.Context) error {
	_, err := e.client.EnqueueContext(ctx, NewSweepInquiriesTask(),
		asynq.Unique(time.Minute),
		asynq.MaxRetry(0),
	)
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		return fmt.Errorf("failed to enqueue sweep task: %w", err)
	}
	return nil
}
