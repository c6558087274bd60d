// internal/store/events.go
package store

import (
	"context"
	"fmt"
	"time"

	"skillmatch-engine/internal/common/database"
	"skillmatch-engine/internal/common/metrics"
	"skillmatch-engine/internal/models"

	"github.com/google/uuid"
)

// EventStore appends to the recommendation training log and the raw
// interaction table. Rows are never updated or deleted.
type EventStore struct {
	db *database.PostgresClient
}

// NewEventStore builds an event store.
func NewEventStore(db *database.PostgresClient) *EventStore {
	return &EventStore{db: db}
}

// AppendEvent writes one training log row. A missing id or timestamp is
// filled in here so every row is replay-identifiable.
func (s *EventStore) AppendEvent(ctx context.Context, ev *models.RecommendationEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO recommendation_events (id, user_id, item_id, item_type, event_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, ev.UserID, ev.ItemID, string(ev.ItemType), string(ev.EventType), ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("append recommendation event: %w", err)
	}

	metrics.EventsLogged.WithLabelValues(string(ev.ItemType), string(ev.EventType)).Inc()
	return nil
}

// AppendInteraction writes one raw job interaction row.
func (s *EventStore) AppendInteraction(ctx context.Context, it *models.Interaction) error {
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO job_interactions (user_id, job_post_id, interaction_type, created_at)
		 VALUES ($1, $2, $3, $4)`,
		it.UserID, it.JobID, it.InteractionType, it.CreatedAt)
	if err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}
