package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// OutboxRepository hands pending events to the relay.
type OutboxRepository interface {
	ClaimBatch(ctx context.Context, limit int) ([]model.OutboxRecord, error)
	MarkSent(ctx context.Context, id int64) error
}
