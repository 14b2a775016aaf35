package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tecnicosrd/models"

	"github.com/hibiken/asynq"
)

const (
	TypeBookingReminder = "booking:reminder"

	// ReminderLead is how long before the start the reminder fires.
	ReminderLead = time.Hour
)

// NewReminderTask builds a reminder task processed at fireAt.
func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		// one reminder per booking and recipient even if confirmation is retried
		asynq.TaskID("reminder:" + payload.BookingID + ":" + payload.RecipientID),
		asynq.MaxRetry(3),
		asynq.Retention(24 * time.Hour),
	}
	return task, opts, nil
}

// ParseReminder decodes a reminder task payload.
func ParseReminder(t *asynq.Task) (models.ReminderPayload, error) {
	var p models.ReminderPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid reminder payload: %w", err)
	}
	if p.BookingID == "" {
		return p, fmt.Errorf("invalid reminder payload: missing booking id")
	}
	if p.RecipientID == "" {
		return p, fmt.Errorf("invalid reminder payload: missing recipient")
	}
	return p, nil
}

// ReminderScheduler enqueues booking reminders.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, payload models.ReminderPayload, startsAt time.Time) error
}

// Enqueuer is the subset of *asynq.Client used here.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqReminderScheduler enqueues reminders into asynq.
type AsynqReminderScheduler struct {
	client Enqueuer
	now    func() time.Time
}

func NewAsynqReminderScheduler(client Enqueuer) *AsynqReminderScheduler {
	return &AsynqReminderScheduler{client: client, now: time.Now}
}

// ScheduleReminder enqueues one task per party, firing ReminderLead before startsAt
// or right away when that moment has passed. A failed push is then retried for its
// recipient only.
func (s *AsynqReminderScheduler) ScheduleReminder(ctx context.Context, payload models.ReminderPayload, startsAt time.Time) error {
	fireAt := startsAt.Add(-ReminderLead)
	if now := s.now(); fireAt.Before(now) {
		fireAt = now
	}
	payload.FireDate = fireAt.Format(time.RFC3339)

	var errs []error
	for _, recipient := range recipients(payload) {
		payload.RecipientID = recipient
		task, opts, err := NewReminderTask(payload, fireAt)
		if err != nil {
			return err
		}
		if _, err := s.client.EnqueueContext(ctx, task, opts...); err != nil {
			if errors.Is(err, asynq.ErrTaskIDConflict) {
				continue
			}
			errs = append(errs, fmt.Errorf("failed to enqueue reminder for booking %s to %s: %w", payload.BookingID, recipient, err))
		}
	}
	return errors.Join(errs...)
}

func recipients(p models.ReminderPayload) []string {
	var out []string
	for _, id := range []string{p.CustomerID, p.TechnicianID} {
		if id != "" && (len(out) == 0 || out[0] != id) {
			out = append(out, id)
		}
	}
	return out
}
