package main

import (
	"context"
	"errors"
	"io"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/souqly/souqly-backend/pkg/config"
	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
	"github.com/souqly/souqly-backend/pkg/logger"
)

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			{
				ID:            uuid.New(),
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   uuid.New(),
				Payload:       []byte(`{"version":1,"data":{}}`),
			},
			{
				ID:            uuid.New(),
				EventType:     enums.EventDeliveryAccepted,
				AggregateType: enums.AggregateDelivery,
				AggregateID:   uuid.New(),
				Payload:       []byte(`{"version":1,"data":{}}`),
			},
		},
	}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	service := newTestService(t, repo, pub, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.failed[0] != repo.events[0].ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if repo.published[0] != repo.events[1].ID {
		t.Fatalf("published row recorded wrong ID")
	}
}

func TestServiceProcessBatchSkipsExhaustedEvents(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			{
				ID:            uuid.New(),
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   uuid.New(),
				Payload:       []byte(`{"version":1,"data":{}}`),
				AttemptCount:  2,
			},
		},
	}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	service := newTestService(t, repo, pub, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(repo.published) != 0 || len(repo.failed) != 0 {
		t.Fatalf("exhausted event should not be touched: published=%d failed=%d", len(repo.published), len(repo.failed))
	}
	if len(pub.results) != 1 {
		t.Fatalf("exhausted event should not be published")
	}
}

func TestServiceProcessBatchReportsIdleWhenEmpty(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, &fakePublisher{}, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("empty outbox should report idle")
	}
}

func TestServicePublishSetsMessageAttributes(t *testing.T) {
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventTicketStatusChanged,
		AggregateType: enums.AggregateTicket,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1,"data":{}}`),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	service := newTestService(t, repo, pub, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected one published message, got %d", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.Attributes["event_type"] != string(enums.EventTicketStatusChanged) {
		t.Fatalf("unexpected event_type attribute %q", msg.Attributes["event_type"])
	}
	if msg.Attributes["aggregate_id"] != event.AggregateID.String() {
		t.Fatalf("unexpected aggregate_id attribute %q", msg.Attributes["aggregate_id"])
	}
	if string(msg.Data) != string(event.Payload) {
		t.Fatalf("payload not forwarded verbatim")
	}
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, outboxCfgOverride *config.OutboxConfig) *Service {
	t.Helper()
	outboxCfg := config.OutboxConfig{
		BatchSize:      2,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}
	if outboxCfgOverride != nil {
		outboxCfg = *outboxCfgOverride
	}
	cfg := &config.Config{Outbox: outboxCfg}
	logg := logger.New(logger.Options{
		ServiceName: "notifier-worker-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         fakePinger{},
		PubSub:     fakePinger{},
		Repository: repo,
		Publisher:  pub,
		Consumer:   fakeConsumer{},
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (f *fakeRepo) FetchUnpublished(limit int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, cause error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakePinger struct{}

func (fakePinger) Ping(context.Context) error {
	return nil
}

type fakeConsumer struct{}

func (fakeConsumer) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "", f.err
}
