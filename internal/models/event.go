// internal/models/event.go
package models

import "time"

// ItemType tags what kind of item a recommendation event refers to.
type ItemType string

const (
	ItemJob        ItemType = "JOB"
	ItemConnection ItemType = "CONNECTION"
)

// EventType is the recommendation lifecycle event.
type EventType string

const (
	EventShown     EventType = "SHOWN"
	EventClicked   EventType = "CLICKED"
	EventApplied   EventType = "APPLIED"
	EventConnected EventType = "CONNECTED"
)

// RecommendationEvent is one append-only row of the training log. It is the
// sole contract with the offline training pipeline: every exposure and every
// resulting action is logged exactly once per occurrence and never mutated.
type RecommendationEvent struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	ItemID    int64     `json:"itemId"`
	ItemType  ItemType  `json:"itemType"`
	EventType EventType `json:"eventType"`
	CreatedAt time.Time `json:"createdAt"`
}

// Interaction is a raw user action on a job, kept separately from the
// training log for analytics.
type Interaction struct {
	UserID          int64     `json:"userId"`
	JobID           int64     `json:"jobId"`
	InteractionType string    `json:"interactionType"`
	CreatedAt       time.Time `json:"createdAt"`
}
