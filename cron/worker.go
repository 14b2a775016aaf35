package cron

import (
	"context"
	"errors"
	"fmt"

	"tecnicosrd/config"
	"tecnicosrd/database"
	"tecnicosrd/models"
	"tecnicosrd/services/notification"
	"tecnicosrd/services/tasks"
	"tecnicosrd/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// BookingLookup reads the booking a reminder refers to.
type BookingLookup interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
}

// ReminderWorker consumes booking reminder tasks from the asynq queue.
type ReminderWorker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

// QueueRedisOpt returns the asynq connection for the reminder queue database.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewReminderWorker wires the reminder handler into an asynq server.
func NewReminderWorker(opt asynq.RedisConnOpt, bookings BookingLookup, notifier notification.NotificationService) *ReminderWorker {
	srv := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: asynqLogger{utils.GetLogger().Sugar().Named("asynq")},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingReminder, HandleReminderTask(bookings, notifier))
	return &ReminderWorker{srv: srv, mux: mux}
}

// Start runs the worker in the background.
func (w *ReminderWorker) Start() error {
	utils.GetLogger().Info("starting reminder worker")
	if err := w.srv.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start reminder worker: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight tasks and stops the worker.
func (w *ReminderWorker) Shutdown() {
	w.srv.Shutdown()
}

// HandleReminderTask pushes the reminder to the recipient of the task while the booking
// is still confirmed. Reminders for bookings that moved on are dropped.
func HandleReminderTask(bookings BookingLookup, notifier notification.NotificationService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		log := utils.GetLogger()

		p, err := tasks.ParseReminder(task)
		if err != nil {
			log.Error("reminder: invalid payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		if bookings != nil {
			b, err := bookings.GetByID(ctx, p.BookingID)
			switch {
			case errors.Is(err, database.ErrNotFound):
				log.Info("reminder: booking gone", zap.String("bookingID", p.BookingID))
				return nil
			case err != nil:
				return err
			case b.Status != models.StatusConfirmed:
				log.Info("reminder: booking no longer confirmed",
					zap.String("bookingID", p.BookingID), zap.String("status", string(b.Status)))
				return nil
			}
		}

		data := map[string]string{
			"bookingId": p.BookingID,
			"fireDate":  p.FireDate,
		}
		err = notifier.NotifyUser(ctx, models.Notification{
			UserID: p.RecipientID,
			Type:   "booking_reminder",
			Title:  p.Title,
			Body:   p.Body,
			Data:   data,
		})
		if err != nil {
			log.Warn("reminder: push failed", zap.String("userID", p.RecipientID), zap.String("bookingID", p.BookingID), zap.Error(err))
			return err
		}
		return nil
	}
}

// asynqLogger routes asynq's logging through zap.
type asynqLogger struct {
	s *zap.SugaredLogger
}

func (l asynqLogger) Debug(args ...interface{}) { l.s.Debug(args...) }
func (l asynqLogger) Info(args ...interface{})  { l.s.Info(args...) }
func (l asynqLogger) Warn(args ...interface{})  { l.s.Warn(args...) }
func (l asynqLogger) Error(args ...interface{}) { l.s.Error(args...) }
func (l asynqLogger) Fatal(args ...interface{}) { l.s.Fatal(args...) }
