package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/souqly/souqly-backend/pkg/logger"
)

func TestNotificationCleanupJobUsesConfiguredRetention(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeNotificationCleanupStore{}
	jobIface, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
		Retention:  7,
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}
	job := jobIface.(*notificationCleanupJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.UTC().Add(-7 * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
}

func TestNotificationCleanupJobPropagatesError(t *testing.T) {
	repo := &fakeNotificationCleanupStore{err: errors.New("boom")}
	jobIface, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type fakeNotificationCleanupStore struct {
	lastCutoff time.Time
	err        error
}

func (f *fakeNotificationCleanupStore) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}
