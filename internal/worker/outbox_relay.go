package worker

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// EventFacade exposes the subset of application functionality required by the relay.
type EventFacade interface {
	EventsEnabled() bool
	PendingEvents(ctx context.Context, limit int) ([]model.OutboxRecord, error)
	PublishEvent(ctx context.Context, record model.OutboxRecord) error
	MarkEventSent(ctx context.Context, id int64) error
}

// OutboxRelay polls the order outbox and publishes events concurrently.
// Events of one order always go to the same worker and are published in id
// order; after a failure the rest of that order's run waits for the lease to
// expire, so nothing overtakes the failed event.
type OutboxRelay struct {
	facade       EventFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewOutboxRelay constructs outbox relay worker pool.
func NewOutboxRelay(facade EventFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *OutboxRelay {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &OutboxRelay{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
	}
}

// Start launches background publishing. It is a no-op when no broker is
// configured or the relay is already running. A stopped relay may be started again.
func (r *OutboxRelay) Start(ctx context.Context) {
	if !r.facade.EventsEnabled() {
		r.logger.Info("event publishing disabled, outbox relay not started")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	// fx start context ends with OnStart; the relay lives until Stop.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel

	shards := make([]chan []model.OutboxRecord, r.workers)
	for i := range shards {
		shards[i] = make(chan []model.OutboxRecord, r.batchSize)
		r.wg.Add(1)
		go r.worker(runCtx, shards[i])
	}

	r.wg.Add(1)
	go r.dispatch(runCtx, shards)
}

// Stop waits for all workers to finish.
func (r *OutboxRelay) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *OutboxRelay) dispatch(ctx context.Context, shards []chan []model.OutboxRecord) {
	defer r.wg.Done()
	defer func() {
		for _, shard := range shards {
			close(shard)
		}
	}()
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fetchAndDispatch(ctx, shards)
		}
	}
}

func (r *OutboxRelay) fetchAndDispatch(ctx context.Context, shards []chan []model.OutboxRecord) {
	records, err := r.facade.PendingEvents(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("fetch pending events failed", slog.String("error", err.Error()))
		return
	}
	for _, run := range groupByKey(records) {
		shard := shards[shardFor(run[0].Key, len(shards))]
		select {
		case <-ctx.Done():
			return
		case shard <- run:
		}
	}
}

func (r *OutboxRelay) worker(ctx context.Context, runs <-chan []model.OutboxRecord) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case run, ok := <-runs:
			if !ok {
				return
			}
			r.handleRun(ctx, run)
		}
	}
}

// handleRun publishes events of one order in sequence and stops at the first failure.
func (r *OutboxRelay) handleRun(ctx context.Context, run []model.OutboxRecord) {
	for _, record := range run {
		if ctx.Err() != nil {
			return
		}
		if err := r.facade.PublishEvent(ctx, record); err != nil {
			return
		}
		if err := r.facade.MarkEventSent(ctx, record.ID); err != nil {
			r.logger.Error("mark event sent failed",
				slog.String("event", record.EventID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// groupByKey splits a batch into per key runs, keeping id order inside each run.
func groupByKey(records []model.OutboxRecord) [][]model.OutboxRecord {
	var runs [][]model.OutboxRecord
	index := make(map[string]int)
	for _, record := range records {
		i, ok := index[record.Key]
		if !ok {
			i = len(runs)
			index[record.Key] = i
			runs = append(runs, nil)
		}
		runs[i] = append(runs[i], record)
	}
	return runs
}

func shardFor(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}
