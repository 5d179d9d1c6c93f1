package events

import (
	"context"
	"fmt"
	"time"

	"travel-checkout/internal/repository"

	"github.com/rs/zerolog"
)

// DefaultRelayBatchSize is used when the relay is built with a batch size
// below one.
const DefaultRelayBatchSize = 100

// Relay moves committed outbox events to the message broker.
type Relay struct {
	outboxRepo repository.OutboxRepository
	publisher  Publisher
	batchSize  int
	now        func() time.Time
	logger     zerolog.Logger
}

// NewRelay creates an outbox relay.
func NewRelay(outboxRepo repository.OutboxRepository, publisher Publisher, batchSize int, logger zerolog.Logger) *Relay {
	if batchSize < 1 {
		batchSize = DefaultRelayBatchSize
	}
	return &Relay{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		batchSize:  batchSize,
		now:        time.Now,
		logger:     logger.With().Str("component", "outbox-relay").Logger(),
	}
}

// RunOnce publishes up to one batch of pending events in id order and
// returns how many were published. It stops at the first publish failure so
// later events of the same order are not sent ahead of earlier ones; the
// failed event is retried on the next run.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.outboxRepo.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch outbox events: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	r.logger.Debug().Int("count", len(pending)).Msg("relaying outbox events")

	published := 0
	for _, event := range pending {
		if err := r.publisher.Publish(ctx, event.Topic, event.AggregateID, event.Payload); err != nil {
			if markErr := r.outboxRepo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				r.logger.Error().Err(markErr).Int64("event_id", event.ID).Msg("failed to record outbox failure")
			}
			r.logger.Warn().
				Err(err).
				Int64("event_id", event.ID).
				Str("event_type", event.EventType).
				Int("published", published).
				Msg("outbox relay stopped at failed event")
			return published, fmt.Errorf("failed to publish outbox event %d: %w", event.ID, err)
		}

		if err := r.outboxRepo.MarkPublished(ctx, event.ID, r.now()); err != nil {
			return published, fmt.Errorf("failed to mark outbox event %d published: %w", event.ID, err)
		}
		published++
	}

	r.logger.Info().Int("published", published).Msg("outbox events relayed")
	return published, nil
}
