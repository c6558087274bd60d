// internal/store/jobs.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"skillmatch-engine/internal/common/database"
	"skillmatch-engine/internal/models"
)

const jobBaseQuery = `SELECT j.id, j.title, COALESCE(j.description, ''), COALESCE(j.company_name, ''),
	COALESCE(j.company_logo, ''), COALESCE(j.job_url, ''), COALESCE(j.source, ''),
	COALESCE(j.location_type, ''), COALESCE(j.employer_id, 0), COALESCE(u.location, ''),
	COALESCE(j.salary, ''), j.posted_at
	FROM job_posts j LEFT JOIN users u ON u.id = j.employer_id`

// JobStore reads job posts from PostgreSQL, joined with the posting
// employer's location for the heuristic location dimension.
type JobStore struct {
	db *database.PostgresClient
}

// NewJobStore builds a job store.
func NewJobStore(db *database.PostgresClient) *JobStore {
	return &JobStore{db: db}
}

// AllJobs returns up to limit jobs, newest first, with required skills
// hydrated.
func (s *JobStore) AllJobs(ctx context.Context, limit int) ([]*models.JobPost, error) {
	rows, err := s.db.Query(ctx, jobBaseQuery+` ORDER BY j.posted_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.JobPost
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}

	if err := hydrateJobs(ctx, s.db, jobs); err != nil {
		return nil, fmt.Errorf("hydrate jobs: %w", err)
	}
	return jobs, nil
}

// GetByID returns one job with required skills hydrated.
func (s *JobStore) GetByID(ctx context.Context, id int64) (*models.JobPost, error) {
	rows, err := s.db.Query(ctx, jobBaseQuery+` WHERE j.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query job %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query job %d: %w", id, err)
		}
		return nil, fmt.Errorf("%w: job %d", ErrJobNotFound, id)
	}
	j, err := scanJob(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()

	if err := hydrateJobs(ctx, s.db, []*models.JobPost{j}); err != nil {
		return nil, fmt.Errorf("hydrate job %d: %w", id, err)
	}
	return j, nil
}

func scanJob(rows *sql.Rows) (*models.JobPost, error) {
	var j models.JobPost
	var posted sql.NullTime
	if err := rows.Scan(&j.ID, &j.Title, &j.Description, &j.CompanyName, &j.CompanyLogo,
		&j.JobURL, &j.Source, &j.LocationType, &j.EmployerID, &j.EmployerLocation,
		&j.Salary, &posted); err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	j.PostedAt = nullableTime(posted)
	return &j, nil
}
