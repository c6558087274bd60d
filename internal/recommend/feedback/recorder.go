// internal/recommend/feedback/recorder.go

// Package feedback owns the training log contract: every surfaced item
// gets exactly one SHOWN event, every user action exactly one action
// event, and interactions are forwarded to the ML engine without ever
// blocking or failing the request that carried them.
package feedback

import (
	"context"
	"sync"
	"time"

	"skillmatch-engine/internal/common/logger"
	"skillmatch-engine/internal/models"
	"skillmatch-engine/internal/recommend/mlbridge"
)

// EventAppender is the append-only persistence surface.
type EventAppender interface {
	AppendEvent(ctx context.Context, ev *models.RecommendationEvent) error
	AppendInteraction(ctx context.Context, it *models.Interaction) error
}

// Pusher forwards an interaction to the ML engine for online learning.
type Pusher interface {
	TrackInteraction(ctx context.Context, fb mlbridge.Feedback) error
}

// Recorder writes the training log and pushes engine feedback.
type Recorder struct {
	events      EventAppender
	pusher      Pusher
	logger      logger.Logger
	pushTimeout time.Duration

	wg sync.WaitGroup
}

// NewRecorder builds a recorder. pushTimeout bounds the detached feedback
// push; the request context is deliberately not reused for it.
func NewRecorder(events EventAppender, pusher Pusher, log logger.Logger, pushTimeout time.Duration) *Recorder {
	return &Recorder{
		events:      events,
		pusher:      pusher,
		logger:      log.WithFields(map[string]interface{}{"component": "feedback"}),
		pushTimeout: pushTimeout,
	}
}

// LogShown appends one SHOWN event per surfaced item, in display order.
// Persistence failures are logged and skipped: a lost exposure row must
// not take down the recommendation response it describes.
func (r *Recorder) LogShown(ctx context.Context, userID int64, itemType models.ItemType, itemIDs []int64) {
	for _, itemID := range itemIDs {
		ev := models.RecommendationEvent{
			UserID:    userID,
			ItemID:    itemID,
			ItemType:  itemType,
			EventType: models.EventShown,
		}
		if err := r.events.AppendEvent(ctx, &ev); err != nil {
			r.logger.Warn("failed to log exposure", map[string]interface{}{
				"user_id":   userID,
				"item_id":   itemID,
				"item_type": string(itemType),
				"error":     err.Error(),
			})
		}
	}
}

// RecordInteraction persists the raw interaction and its training log
// event, then pushes engine feedback from a detached goroutine. The push
// never blocks the caller and its failure is only logged. The persistence
// error, if any, is the caller's problem.
func (r *Recorder) RecordInteraction(ctx context.Context, it *models.Interaction, ev *models.RecommendationEvent, fb *mlbridge.Feedback) error {
	if err := r.events.AppendInteraction(ctx, it); err != nil {
		return err
	}
	if err := r.events.AppendEvent(ctx, ev); err != nil {
		return err
	}

	if fb != nil {
		r.push(*fb)
	}
	return nil
}

// push forwards feedback on its own context so a finished request cannot
// cancel it.
func (r *Recorder) push(fb mlbridge.Feedback) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.pushTimeout)
		defer cancel()
		if err := r.pusher.TrackInteraction(ctx, fb); err != nil {
			r.logger.Warn("feedback push failed", map[string]interface{}{
				"user_id": fb.UserID,
				"job_id":  fb.JobID,
				"type":    fb.Type,
				"error":   err.Error(),
			})
		}
	}()
}

// Flush waits for in-flight feedback pushes. Called on shutdown and from
// tests.
func (r *Recorder) Flush() {
	r.wg.Wait()
}
