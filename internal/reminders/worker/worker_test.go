package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventms/pkg/config"
	"eventms/pkg/kafka"
	"eventms/pkg/logger"
	"eventms/pkg/model"
)

type mockReminderRepo struct {
	findDueFn func(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error)
	sent      []string
	failed    []string
}

func (m *mockReminderRepo) Create(ctx context.Context, reminder *model.Reminder) error { return nil }

func (m *mockReminderRepo) FindDue(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error) {
	if m.findDueFn != nil {
		return m.findDueFn(ctx, now, limit)
	}
	return nil, nil
}

func (m *mockReminderRepo) MarkSent(ctx context.Context, id string) error {
	m.sent = append(m.sent, id)
	return nil
}

func (m *mockReminderRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	m.failed = append(m.failed, id)
	return nil
}

func (m *mockReminderRepo) DeleteByEvent(ctx context.Context, eventID string) error { return nil }

type mockPublisher struct {
	publishFn func(ctx context.Context, msg kafka.Message) error
	published []kafka.Message
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	if m.publishFn != nil {
		if err := m.publishFn(ctx, msg); err != nil {
			return err
		}
	}
	m.published = append(m.published, msg)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                  logger.New(logger.Config{Level: "error"}),
		ReminderPollInterval: 10 * time.Millisecond,
		ReminderBatchSize:    50,
	}
}

func dueReminder(id string) *model.Reminder {
	return &model.Reminder{
		ID:        id,
		EventID:   "665f1b2e8f1a4c0012345200",
		Recipient: "665f1b2e8f1a4c0012345001",
		SendAt:    time.Now().Add(-time.Minute),
		Status:    model.ReminderStatusScheduled,
	}
}

func TestDispatch_PublishesAndMarksSent(t *testing.T) {
	repo := &mockReminderRepo{
		findDueFn: func(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error) {
			return []*model.Reminder{dueReminder("r1"), dueReminder("r2")}, nil
		},
	}
	publisher := &mockPublisher{}
	w := NewWorker(repo, publisher, testConfig())

	w.Dispatch(context.Background())

	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(publisher.published))
	}
	if got := publisher.published[0].Headers[kafka.HeaderMessageType]; got != kafka.TypeReminderDue {
		t.Errorf("message type = %q, want %q", got, kafka.TypeReminderDue)
	}
	if len(repo.sent) != 2 {
		t.Errorf("expected 2 reminders marked sent, got %d", len(repo.sent))
	}
	if len(repo.failed) != 0 {
		t.Errorf("expected no failures, got %d", len(repo.failed))
	}
}

func TestDispatch_PublishFailureMarksFailed(t *testing.T) {
	repo := &mockReminderRepo{
		findDueFn: func(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error) {
			return []*model.Reminder{dueReminder("r1"), dueReminder("r2")}, nil
		},
	}
	calls := 0
	publisher := &mockPublisher{
		publishFn: func(ctx context.Context, msg kafka.Message) error {
			calls++
			if calls == 1 {
				return errors.New("broker unavailable")
			}
			return nil
		},
	}
	w := NewWorker(repo, publisher, testConfig())

	w.Dispatch(context.Background())

	if len(repo.failed) != 1 || repo.failed[0] != "r1" {
		t.Errorf("expected r1 marked failed, got %v", repo.failed)
	}
	if len(repo.sent) != 1 || repo.sent[0] != "r2" {
		t.Errorf("expected r2 marked sent, got %v", repo.sent)
	}
}

func TestStartStop(t *testing.T) {
	dispatched := make(chan struct{}, 1)
	repo := &mockReminderRepo{
		findDueFn: func(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error) {
			select {
			case dispatched <- struct{}{}:
			default:
			}
			return nil, nil
		},
	}
	w := NewWorker(repo, &mockPublisher{}, testConfig())

	w.Start()

	select {
	case <-dispatched:
	case <-time.After(time.Second):
		t.Fatal("worker never polled")
	}

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() did not return")
	}
}
