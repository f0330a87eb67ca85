package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// claimLease is how long a claimed event stays invisible to other relays.
const claimLease = "30 seconds"

type outboxRepository struct {
	storage *Storage
}

func (s *Storage) insertEvent(ctx context.Context, tx pgx.Tx, event model.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	const query = `INSERT INTO outbox (event_id, topic, key, payload) VALUES ($1, $2, $3, $4)
                   ON CONFLICT (event_id) DO NOTHING`
	if _, err := tx.Exec(ctx, query, event.ID, s.topic, event.OrderID, payload); err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}
	return nil
}

// ClaimBatch leases up to limit unsent events, skipping rows held by other
// relays and rows queued behind a leased event of the same order.
func (r *outboxRepository) ClaimBatch(ctx context.Context, limit int) ([]model.OutboxRecord, error) {
	const selectQuery = `SELECT id, event_id, topic, key, payload, attempts, created_at
                         FROM outbox
                         WHERE sent_at IS NULL AND (locked_until IS NULL OR locked_until < NOW())
                           AND NOT EXISTS (
                               SELECT 1 FROM outbox earlier
                               WHERE earlier.key = outbox.key AND earlier.id < outbox.id
                                 AND earlier.sent_at IS NULL AND earlier.locked_until >= NOW())
                         ORDER BY id
                         LIMIT $1
                         FOR UPDATE SKIP LOCKED`
	const leaseQuery = `UPDATE outbox SET attempts = attempts + 1, locked_until = NOW() + INTERVAL '` + claimLease + `'
                        WHERE id = ANY($1)`

	var records []model.OutboxRecord
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, limit)
		if err != nil {
			return err
		}
		for rows.Next() {
			var rec model.OutboxRecord
			var payload []byte
			if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &payload, &rec.Attempts, &rec.CreatedAt); err != nil {
				rows.Close()
				return err
			}
			rec.Payload = json.RawMessage(payload)
			rec.Attempts++
			records = append(records, rec)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		ids := make([]int64, len(records))
		for i, rec := range records {
			ids[i] = rec.ID
		}
		_, err = tx.Exec(ctx, leaseQuery, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id int64) error {
	const query = `UPDATE outbox SET sent_at = NOW(), locked_until = NULL WHERE id=$1`
	_, err := r.storage.pool.Exec(ctx, query, id)
	return err
}
