// internal/store/store.go

// Package store is the persistence layer: user, job, and match reads over
// PostgreSQL, the append-only event log, and an optional Elasticsearch job
// pool. Stores return fully hydrated models; callers never see rows.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"skillmatch-engine/internal/models"

	"github.com/lib/pq"
)

var (
	ErrUserNotFound = errors.New("USER_NOT_FOUND")
	ErrJobNotFound  = errors.New("JOB_NOT_FOUND")
)

// querier is the minimal read surface shared by the SQL-backed stores.
type querier interface {
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// loadUserSkills fetches skills for a batch of users in one round trip.
func loadUserSkills(ctx context.Context, q querier, ids []int64) (map[int64][]string, error) {
	skills := make(map[int64][]string, len(ids))
	if len(ids) == 0 {
		return skills, nil
	}

	rows, err := q.Query(ctx,
		`SELECT user_id, skill FROM user_skills WHERE user_id = ANY($1) ORDER BY user_id, skill`,
		pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var skill string
		if err := rows.Scan(&userID, &skill); err != nil {
			return nil, err
		}
		skills[userID] = append(skills[userID], skill)
	}
	return skills, rows.Err()
}

// loadUserExperiences fetches experience entries for a batch of users,
// newest first so the head of each slice is the latest role.
func loadUserExperiences(ctx context.Context, q querier, ids []int64) (map[int64][]models.Experience, error) {
	exps := make(map[int64][]models.Experience, len(ids))
	if len(ids) == 0 {
		return exps, nil
	}

	rows, err := q.Query(ctx,
		`SELECT user_id, job_title, company_name, COALESCE(description, ''), start_date, end_date
		 FROM experiences WHERE user_id = ANY($1) ORDER BY user_id, start_date DESC`,
		pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var e models.Experience
		var start, end sql.NullTime
		if err := rows.Scan(&userID, &e.JobTitle, &e.CompanyName, &e.Description, &start, &end); err != nil {
			return nil, err
		}
		if start.Valid {
			e.StartDate = start.Time
		}
		if end.Valid {
			e.EndDate = end.Time
		}
		exps[userID] = append(exps[userID], e)
	}
	return exps, rows.Err()
}

// loadUserEducations fetches education entries for a batch of users.
func loadUserEducations(ctx context.Context, q querier, ids []int64) (map[int64][]models.Education, error) {
	edus := make(map[int64][]models.Education, len(ids))
	if len(ids) == 0 {
		return edus, nil
	}

	rows, err := q.Query(ctx,
		`SELECT user_id, institution_name, COALESCE(degree, ''), COALESCE(year_started, 0), COALESCE(year_completed, 0)
		 FROM educations WHERE user_id = ANY($1) ORDER BY user_id, year_started DESC`,
		pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var e models.Education
		if err := rows.Scan(&userID, &e.InstitutionName, &e.Degree, &e.YearStarted, &e.YearCompleted); err != nil {
			return nil, err
		}
		edus[userID] = append(edus[userID], e)
	}
	return edus, rows.Err()
}

// hydrateUsers attaches skills, experiences, and educations to a batch of
// base user rows.
func hydrateUsers(ctx context.Context, q querier, users []*models.User) error {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	skills, err := loadUserSkills(ctx, q, ids)
	if err != nil {
		return err
	}
	exps, err := loadUserExperiences(ctx, q, ids)
	if err != nil {
		return err
	}
	edus, err := loadUserEducations(ctx, q, ids)
	if err != nil {
		return err
	}

	for _, u := range users {
		u.Skills = skills[u.ID]
		u.Experiences = exps[u.ID]
		u.Educations = edus[u.ID]
	}
	return nil
}

// loadJobSkills fetches required skills for a batch of jobs.
func loadJobSkills(ctx context.Context, q querier, ids []int64) (map[int64][]string, error) {
	skills := make(map[int64][]string, len(ids))
	if len(ids) == 0 {
		return skills, nil
	}

	rows, err := q.Query(ctx,
		`SELECT job_post_id, skill FROM job_post_skills WHERE job_post_id = ANY($1) ORDER BY job_post_id, skill`,
		pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var jobID int64
		var skill string
		if err := rows.Scan(&jobID, &skill); err != nil {
			return nil, err
		}
		skills[jobID] = append(skills[jobID], skill)
	}
	return skills, rows.Err()
}

// hydrateJobs attaches required skills to a batch of job rows.
func hydrateJobs(ctx context.Context, q querier, jobs []*models.JobPost) error {
	ids := make([]int64, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}

	skills, err := loadJobSkills(ctx, q, ids)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		j.RequiredSkills = skills[j.ID]
	}
	return nil
}

func nullableTime(t sql.NullTime) time.Time {
	if t.Valid {
		return t.Time
	}
	return time.Time{}
}
