package worker

import (
	"context"
	"sync"
	"time"

	"eventms/internal/reminders/repository"
	"eventms/pkg/config"
	"eventms/pkg/kafka"
)

// Publisher is the subset of the Kafka producer the worker needs.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Worker polls for due reminders and emits them to the reminders topic.
// Delivery to end users is handled downstream by notification consumers.
type Worker struct {
	repo      repository.ReminderRepository
	publisher Publisher
	cfg       *config.Config

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewWorker(repo repository.ReminderRepository, publisher Publisher, cfg *config.Config) *Worker {
	return &Worker{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the polling loop until Stop is called.
func (w *Worker) Start() {
	go w.run()
}

func (w *Worker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.cfg.ReminderPollInterval)
	defer ticker.Stop()

	w.cfg.Log.Info("Reminder worker started", "poll_interval", w.cfg.ReminderPollInterval)

	for {
		select {
		case <-w.stop:
			w.cfg.Log.Info("Reminder worker stopped")
			return
		case <-ticker.C:
			w.Dispatch(context.Background())
		}
	}
}

// Dispatch publishes every due reminder once. Reminders whose publish fails
// are marked failed and will not be retried.
func (w *Worker) Dispatch(ctx context.Context) {
	due, err := w.repo.FindDue(ctx, time.Now(), w.cfg.ReminderBatchSize)
	if err != nil {
		w.cfg.Log.Error("Failed to load due reminders", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	sent := 0
	for _, reminder := range due {
		msg := kafka.NewMessage().
			WithKey(reminder.EventID).
			WithValue(reminder).
			WithType(kafka.TypeReminderDue).
			WithSource("eventms").
			Build()

		if err := w.publisher.Publish(ctx, msg); err != nil {
			w.cfg.Log.Error("Failed to publish reminder", "reminder_id", reminder.ID, "event_id", reminder.EventID, "error", err)
			if markErr := w.repo.MarkFailed(ctx, reminder.ID, err.Error()); markErr != nil {
				w.cfg.Log.Error("Failed to mark reminder failed", "reminder_id", reminder.ID, "error", markErr)
			}
			continue
		}

		if err := w.repo.MarkSent(ctx, reminder.ID); err != nil {
			w.cfg.Log.Error("Failed to mark reminder sent", "reminder_id", reminder.ID, "error", err)
			continue
		}
		sent++
	}

	w.cfg.Log.Info("Reminder batch dispatched", "due", len(due), "sent", sent)
}

// Stop signals the loop to exit and waits for the in-flight batch.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	<-w.done
}
