// internal/store/events_test.go
package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"skillmatch-engine/internal/common/database"
	"skillmatch-engine/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createEventStore(t *testing.T) (*EventStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewEventStore(&database.PostgresClient{DB: db}), mock
}

// ==========================
// Training Log Tests
// ==========================

func TestAppendEvent_FillsIDAndTimestamp(t *testing.T) {
	store, mock := createEventStore(t)

	mock.ExpectExec("INSERT INTO recommendation_events").
		WithArgs(sqlmock.AnyArg(), int64(7), int64(9), "JOB", "SHOWN", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ev := models.RecommendationEvent{
		UserID:    7,
		ItemID:    9,
		ItemType:  models.ItemJob,
		EventType: models.EventShown,
	}
	err := store.AppendEvent(context.Background(), &ev)
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendEvent_KeepsProvidedIdentity(t *testing.T) {
	store, mock := createEventStore(t)

	createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO recommendation_events").
		WithArgs("fixed-id", int64(7), int64(9), "CONNECTION", "CONNECTED", createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ev := models.RecommendationEvent{
		ID:        "fixed-id",
		UserID:    7,
		ItemID:    9,
		ItemType:  models.ItemConnection,
		EventType: models.EventConnected,
		CreatedAt: createdAt,
	}
	require.NoError(t, store.AppendEvent(context.Background(), &ev))
	assert.Equal(t, "fixed-id", ev.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendEvent_InsertFailure(t *testing.T) {
	store, mock := createEventStore(t)

	mock.ExpectExec("INSERT INTO recommendation_events").
		WillReturnError(errors.New("connection reset"))

	err := store.AppendEvent(context.Background(), &models.RecommendationEvent{
		UserID:    7,
		ItemID:    9,
		ItemType:  models.ItemJob,
		EventType: models.EventShown,
	})
	assert.Error(t, err)
}

// ==========================
// Interaction Tests
// ==========================

func TestAppendInteraction(t *testing.T) {
	store, mock := createEventStore(t)

	mock.ExpectExec("INSERT INTO job_interactions").
		WithArgs(int64(7), int64(9), "apply", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	it := models.Interaction{UserID: 7, JobID: 9, InteractionType: "apply"}
	require.NoError(t, store.AppendInteraction(context.Background(), &it))

	assert.False(t, it.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
