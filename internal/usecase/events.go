package usecase

import (
	"context"
	"log/slog"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/metrics"
)

// EventPublisher delivers outbox records to the message broker.
type EventPublisher interface {
	Enabled() bool
	Publish(ctx context.Context, record model.OutboxRecord) error
}

// EventUseCase relays order events stored in the outbox.
type EventUseCase struct {
	outbox    repository.OutboxRepository
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewEventUseCase constructs EventUseCase.
func NewEventUseCase(outbox repository.OutboxRepository, publisher EventPublisher, m *metrics.Metrics, logger *slog.Logger) *EventUseCase {
	return &EventUseCase{outbox: outbox, publisher: publisher, metrics: m, logger: logger}
}

// Enabled reports whether events can leave the outbox.
func (u *EventUseCase) Enabled() bool {
	return u.publisher != nil && u.publisher.Enabled()
}

// Pending claims up to limit undelivered events.
func (u *EventUseCase) Pending(ctx context.Context, limit int) ([]model.OutboxRecord, error) {
	return u.outbox.ClaimBatch(ctx, limit)
}

// Publish sends record to the broker.
func (u *EventUseCase) Publish(ctx context.Context, record model.OutboxRecord) error {
	err := u.publisher.Publish(ctx, record)
	u.metrics.ObservePublish(err)
	if err != nil {
		u.logger.Warn("publish order event failed",
			slog.String("event", record.EventID),
			slog.Int("attempts", record.Attempts),
			slog.Any("error", err),
		)
	}
	return err
}

// MarkSent acknowledges delivered record.
func (u *EventUseCase) MarkSent(ctx context.Context, id int64) error {
	return u.outbox.MarkSent(ctx, id)
}
