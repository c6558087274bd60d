// internal/store/users.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"skillmatch-engine/internal/common/database"
	"skillmatch-engine/internal/common/logger"
	"skillmatch-engine/internal/models"

	"github.com/lib/pq"
)

const userBaseColumns = `id, full_name, COALESCE(email, ''), role, COALESCE(location, ''), COALESCE(bio, '')`

// UserStore reads user profiles from PostgreSQL with a Redis cache in front
// of the single-profile lookup.
type UserStore struct {
	db         *database.PostgresClient
	cache      *database.RedisClient
	logger     logger.Logger
	profileTTL time.Duration
}

// NewUserStore builds a user store. The cache may be nil, which disables
// the profile cache entirely.
func NewUserStore(db *database.PostgresClient, cache *database.RedisClient, log logger.Logger, profileTTL time.Duration) *UserStore {
	return &UserStore{
		db:         db,
		cache:      cache,
		logger:     log.WithFields(map[string]interface{}{"component": "user_store"}),
		profileTTL: profileTTL,
	}
}

func profileCacheKey(id int64) string {
	return fmt.Sprintf("user:profile:%d", id)
}

// GetByID returns one fully hydrated user. Cache-aside: a Redis hit skips
// the database, a miss reads through and repopulates; cache failures only
// degrade to a database read.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, profileCacheKey(id))
		if err == nil {
			var u models.User
			if err := json.Unmarshal([]byte(cached), &u); err == nil {
				return &u, nil
			}
			s.logger.Warn("corrupt cached profile, reading through", map[string]interface{}{"user_id": id})
		}
	}

	u, err := s.fetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(u); err == nil {
			if err := s.cache.Set(ctx, profileCacheKey(id), data, s.profileTTL); err != nil {
				s.logger.Warn("failed to cache profile", map[string]interface{}{
					"user_id": id,
					"error":   err.Error(),
				})
			}
		}
	}
	return u, nil
}

func (s *UserStore) fetchByID(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userBaseColumns+` FROM users WHERE id = $1`, id)

	var u models.User
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Role, &u.Location, &u.Bio); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %d", ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("query user %d: %w", id, err)
	}

	if err := hydrateUsers(ctx, s.db, []*models.User{&u}); err != nil {
		return nil, fmt.Errorf("hydrate user %d: %w", id, err)
	}
	return &u, nil
}

// AllCandidates returns up to limit users in candidate-facing roles,
// hydrated for scoring.
func (s *UserStore) AllCandidates(ctx context.Context, limit int) ([]*models.User, error) {
	return s.listUsers(ctx,
		`SELECT `+userBaseColumns+` FROM users WHERE role IN ('CANDIDATE', 'USER') ORDER BY id LIMIT $1`,
		limit)
}

// AllUsers returns up to limit users of any role, hydrated for scoring.
func (s *UserStore) AllUsers(ctx context.Context, limit int) ([]*models.User, error) {
	return s.listUsers(ctx,
		`SELECT `+userBaseColumns+` FROM users ORDER BY id LIMIT $1`,
		limit)
}

func (s *UserStore) listUsers(ctx context.Context, query string, limit int) ([]*models.User, error) {
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Role, &u.Location, &u.Bio); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	if err := hydrateUsers(ctx, s.db, users); err != nil {
		return nil, fmt.Errorf("hydrate users: %w", err)
	}
	return users, nil
}

// ConnectionsOf returns the ids of a user's accepted first-degree
// connections, whichever side initiated.
func (s *UserStore) ConnectionsOf(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.Query(ctx,
		`SELECT CASE WHEN requester_id = $1 THEN recipient_id ELSE requester_id END
		 FROM connections
		 WHERE status = 'ACCEPTED' AND (requester_id = $1 OR recipient_id = $1)`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query connections of %d: %w", userID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MutualConnectionCounts returns, for each id in otherIDs, how many
// accepted connections that user shares with userID. Users with no mutuals
// are absent from the map.
func (s *UserStore) MutualConnectionCounts(ctx context.Context, userID int64, otherIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(otherIDs))
	if len(otherIDs) == 0 {
		return counts, nil
	}

	rows, err := s.db.Query(ctx,
		`WITH edges AS (
			SELECT requester_id AS u, recipient_id AS friend FROM connections WHERE status = 'ACCEPTED'
			UNION ALL
			SELECT recipient_id AS u, requester_id AS friend FROM connections WHERE status = 'ACCEPTED'
		 )
		 SELECT o.u, COUNT(*)
		 FROM edges mine
		 JOIN edges o ON o.friend = mine.friend
		 WHERE mine.u = $1 AND o.u = ANY($2)
		 GROUP BY o.u`,
		userID, pq.Array(otherIDs))
	if err != nil {
		return nil, fmt.Errorf("query mutual connection counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan mutual connection count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
