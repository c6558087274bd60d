// internal/store/users_test.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"skillmatch-engine/internal/common/database"
	"skillmatch-engine/internal/common/logger"
	"skillmatch-engine/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createUserStore(t *testing.T, withCache bool) (*UserStore, sqlmock.Sqlmock, *miniredis.Miniredis) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var cache *database.RedisClient
	var mr *miniredis.Miniredis
	if withCache {
		mr = miniredis.RunT(t)
		cache = &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	}

	store := NewUserStore(&database.PostgresClient{DB: db}, cache, logger.NewTestLogger(t), time.Minute)
	return store, mock, mr
}

func expectUserRow(mock sqlmock.Sqlmock, id int64, name string) {
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role", "location", "bio"}).
			AddRow(id, name, "dana@example.com", "CANDIDATE", "Berlin", "Gopher"))
}

func expectHydration(mock sqlmock.Sqlmock, id int64) {
	mock.ExpectQuery("SELECT user_id, skill FROM user_skills").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "skill"}).
			AddRow(id, "Go").
			AddRow(id, "SQL"))
	mock.ExpectQuery("SELECT user_id, job_title, company_name, (.+) FROM experiences").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "job_title", "company_name", "description", "start_date", "end_date"}).
			AddRow(id, "Engineer", "Acme", "", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), nil))
	mock.ExpectQuery("SELECT user_id, institution_name, (.+) FROM educations").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "institution_name", "degree", "year_started", "year_completed"}).
			AddRow(id, "MIT", "BSc", 2015, 2019))
}

// ==========================
// Profile Lookup Tests
// ==========================

func TestGetByID_HydratesProfile(t *testing.T) {
	store, mock, _ := createUserStore(t, false)

	expectUserRow(mock, 7, "Dana Smith")
	expectHydration(mock, 7)

	u, err := store.GetByID(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "Dana Smith", u.FullName)
	assert.Equal(t, []string{"Go", "SQL"}, u.Skills)
	require.Len(t, u.Experiences, 1)
	assert.Equal(t, "Engineer", u.Experiences[0].JobTitle)
	assert.True(t, u.Experiences[0].EndDate.IsZero(), "open-ended entry has zero end date")
	require.Len(t, u.Educations, 1)
	assert.Equal(t, "MIT", u.Educations[0].InstitutionName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	store, mock, _ := createUserStore(t, false)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role", "location", "bio"}))

	_, err := store.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetByID_CacheMissPopulatesRedis(t *testing.T) {
	store, mock, mr := createUserStore(t, true)

	expectUserRow(mock, 7, "Dana Smith")
	expectHydration(mock, 7)

	u, err := store.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)

	cached, err := mr.Get("user:profile:7")
	require.NoError(t, err)
	var fromCache models.User
	require.NoError(t, json.Unmarshal([]byte(cached), &fromCache))
	assert.Equal(t, "Dana Smith", fromCache.FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_CacheHitSkipsDatabase(t *testing.T) {
	store, mock, mr := createUserStore(t, true)

	cached, err := json.Marshal(models.User{ID: 7, FullName: "Cached Dana"})
	require.NoError(t, err)
	mr.Set("user:profile:7", string(cached))

	// No sqlmock expectations: touching the database would fail the test
	u, err := store.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Cached Dana", u.FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_CorruptCacheReadsThrough(t *testing.T) {
	store, mock, mr := createUserStore(t, true)

	mr.Set("user:profile:7", "{not json")
	expectUserRow(mock, 7, "Dana Smith")
	expectHydration(mock, 7)

	u, err := store.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Dana Smith", u.FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_CacheUnavailableReadsThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rdb, redisMock := redismock.NewClientMock()
	store := NewUserStore(&database.PostgresClient{DB: db},
		&database.RedisClient{Client: rdb}, logger.NewTestLogger(t), time.Minute)

	redisMock.ExpectGet("user:profile:7").SetErr(errors.New("connection refused"))
	redisMock.Regexp().ExpectSet("user:profile:7", `.*`, time.Minute).SetVal("OK")

	expectUserRow(mock, 7, "Dana Smith")
	expectHydration(mock, 7)

	u, err := store.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Dana Smith", u.FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Pool Listing Tests
// ==========================

func TestAllCandidates(t *testing.T) {
	store, mock, _ := createUserStore(t, false)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE role IN").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role", "location", "bio"}).
			AddRow(1, "A", "", "CANDIDATE", "", "").
			AddRow(2, "B", "", "USER", "", ""))
	mock.ExpectQuery("SELECT user_id, skill FROM user_skills").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "skill"}).AddRow(1, "Go"))
	mock.ExpectQuery("SELECT user_id, job_title, company_name, (.+) FROM experiences").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "job_title", "company_name", "description", "start_date", "end_date"}))
	mock.ExpectQuery("SELECT user_id, institution_name, (.+) FROM educations").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "institution_name", "degree", "year_started", "year_completed"}))

	users, err := store.AllCandidates(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, []string{"Go"}, users[0].Skills)
	assert.Empty(t, users[1].Skills)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Connection Graph Tests
// ==========================

func TestConnectionsOf_BothDirections(t *testing.T) {
	store, mock, _ := createUserStore(t, false)

	mock.ExpectQuery("FROM connections").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"other"}).AddRow(3).AddRow(11))

	ids, err := store.ConnectionsOf(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 11}, ids)
}

func TestMutualConnectionCounts(t *testing.T) {
	store, mock, _ := createUserStore(t, false)

	mock.ExpectQuery("WITH edges AS").
		WillReturnRows(sqlmock.NewRows([]string{"u", "count"}).
			AddRow(9, 2).
			AddRow(12, 1))

	counts, err := store.MutualConnectionCounts(context.Background(), 7, []int64{9, 12, 15})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{9: 2, 12: 1}, counts)
}

func TestMutualConnectionCounts_EmptyInput(t *testing.T) {
	store, _, _ := createUserStore(t, false)

	counts, err := store.MutualConnectionCounts(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
