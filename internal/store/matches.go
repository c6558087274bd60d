// internal/store/matches.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"skillmatch-engine/internal/common/database"
	"skillmatch-engine/internal/models"
)

// MatchStore reads the precomputed match tables maintained by the offline
// pipeline and owns the online cached-match table. Precomputed tables are
// read-only here: the batch job replaces them wholesale.
type MatchStore struct {
	db *database.PostgresClient
}

// NewMatchStore builds a match store.
func NewMatchStore(db *database.PostgresClient) *MatchStore {
	return &MatchStore{db: db}
}

// PrecomputedJobMatches returns the offline job ranking for a user, rank
// ascending, with each job hydrated.
func (s *MatchStore) PrecomputedJobMatches(ctx context.Context, userID int64, limit int) ([]models.PrecomputedJobMatch, error) {
	rows, err := s.db.Query(ctx,
		`SELECT m.score, m.rank, m.computed_at,
			j.id, j.title, COALESCE(j.description, ''), COALESCE(j.company_name, ''),
			COALESCE(j.company_logo, ''), COALESCE(j.job_url, ''), COALESCE(j.source, ''),
			COALESCE(j.location_type, ''), COALESCE(j.employer_id, 0), COALESCE(u.location, ''),
			COALESCE(j.salary, ''), j.posted_at
		 FROM precomputed_job_matches m
		 JOIN job_posts j ON j.id = m.job_post_id
		 LEFT JOIN users u ON u.id = j.employer_id
		 WHERE m.user_id = $1
		 ORDER BY m.rank ASC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query precomputed job matches: %w", err)
	}
	defer rows.Close()

	var matches []models.PrecomputedJobMatch
	var jobs []*models.JobPost
	for rows.Next() {
		m := models.PrecomputedJobMatch{UserID: userID}
		var computed, posted sql.NullTime
		if err := rows.Scan(&m.Score, &m.Rank, &computed,
			&m.Job.ID, &m.Job.Title, &m.Job.Description, &m.Job.CompanyName,
			&m.Job.CompanyLogo, &m.Job.JobURL, &m.Job.Source,
			&m.Job.LocationType, &m.Job.EmployerID, &m.Job.EmployerLocation,
			&m.Job.Salary, &posted); err != nil {
			return nil, fmt.Errorf("scan precomputed job match: %w", err)
		}
		m.ComputedAt = nullableTime(computed)
		m.Job.PostedAt = nullableTime(posted)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate precomputed job matches: %w", err)
	}

	for i := range matches {
		jobs = append(jobs, &matches[i].Job)
	}
	if err := hydrateJobs(ctx, s.db, jobs); err != nil {
		return nil, fmt.Errorf("hydrate precomputed job matches: %w", err)
	}
	return matches, nil
}

// PrecomputedConnectionMatches returns the offline connection ranking for a
// user, rank ascending, with each recommended user hydrated.
func (s *MatchStore) PrecomputedConnectionMatches(ctx context.Context, userID int64, limit int) ([]models.PrecomputedConnectionMatch, error) {
	rows, err := s.db.Query(ctx,
		`SELECT m.score, m.rank, m.computed_at,
			r.id, r.full_name, COALESCE(r.email, ''), r.role, COALESCE(r.location, ''), COALESCE(r.bio, '')
		 FROM precomputed_connection_matches m
		 JOIN users r ON r.id = m.recommended_user_id
		 WHERE m.user_id = $1
		 ORDER BY m.rank ASC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query precomputed connection matches: %w", err)
	}
	defer rows.Close()

	var matches []models.PrecomputedConnectionMatch
	for rows.Next() {
		m := models.PrecomputedConnectionMatch{UserID: userID}
		var computed sql.NullTime
		u := &m.RecommendedUser
		if err := rows.Scan(&m.Score, &m.Rank, &computed,
			&u.ID, &u.FullName, &u.Email, &u.Role, &u.Location, &u.Bio); err != nil {
			return nil, fmt.Errorf("scan precomputed connection match: %w", err)
		}
		m.ComputedAt = nullableTime(computed)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate precomputed connection matches: %w", err)
	}

	var users []*models.User
	for i := range matches {
		users = append(users, &matches[i].RecommendedUser)
	}
	if err := hydrateUsers(ctx, s.db, users); err != nil {
		return nil, fmt.Errorf("hydrate precomputed connection matches: %w", err)
	}
	return matches, nil
}

// CachedJobMatches returns the online-materialized matches for a user,
// best score first, with each job hydrated.
func (s *MatchStore) CachedJobMatches(ctx context.Context, userID int64, limit int) ([]models.CachedJobMatch, error) {
	rows, err := s.db.Query(ctx,
		`SELECT c.score, c.computed_at,
			j.id, j.title, COALESCE(j.description, ''), COALESCE(j.company_name, ''),
			COALESCE(j.company_logo, ''), COALESCE(j.job_url, ''), COALESCE(j.source, ''),
			COALESCE(j.location_type, ''), COALESCE(j.employer_id, 0), COALESCE(u.location, ''),
			COALESCE(j.salary, ''), j.posted_at
		 FROM cached_job_matches c
		 JOIN job_posts j ON j.id = c.job_post_id
		 LEFT JOIN users u ON u.id = j.employer_id
		 WHERE c.user_id = $1
		 ORDER BY c.score DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query cached job matches: %w", err)
	}
	defer rows.Close()

	var matches []models.CachedJobMatch
	for rows.Next() {
		m := models.CachedJobMatch{UserID: userID}
		var computed, posted sql.NullTime
		if err := rows.Scan(&m.Score, &computed,
			&m.Job.ID, &m.Job.Title, &m.Job.Description, &m.Job.CompanyName,
			&m.Job.CompanyLogo, &m.Job.JobURL, &m.Job.Source,
			&m.Job.LocationType, &m.Job.EmployerID, &m.Job.EmployerLocation,
			&m.Job.Salary, &posted); err != nil {
			return nil, fmt.Errorf("scan cached job match: %w", err)
		}
		m.ComputedAt = nullableTime(computed)
		m.Job.PostedAt = nullableTime(posted)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached job matches: %w", err)
	}

	var jobs []*models.JobPost
	for i := range matches {
		jobs = append(jobs, &matches[i].Job)
	}
	if err := hydrateJobs(ctx, s.db, jobs); err != nil {
		return nil, fmt.Errorf("hydrate cached job matches: %w", err)
	}
	return matches, nil
}

// UpsertCachedJobMatch writes one online match score, idempotently keyed by
// (user, job). Replays with a fresher score overwrite in place.
func (s *MatchStore) UpsertCachedJobMatch(ctx context.Context, m models.CachedJobMatch) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO cached_job_matches (user_id, job_post_id, score, computed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, job_post_id)
		 DO UPDATE SET score = EXCLUDED.score, computed_at = EXCLUDED.computed_at`,
		m.UserID, m.Job.ID, m.Score, m.ComputedAt)
	if err != nil {
		return fmt.Errorf("upsert cached job match: %w", err)
	}
	return nil
}
