// internal/store/jobsearch.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"skillmatch-engine/internal/common/database"
	"skillmatch-engine/internal/common/logger"
	"skillmatch-engine/internal/models"
)

// JobSearchStore reads the job pool from the Elasticsearch index that the
// ingestion pipeline keeps in sync with job_posts. It is an optional
// replacement for JobStore.AllJobs on deployments where the SQL job table
// is too large to scan.
type JobSearchStore struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

// NewJobSearchStore builds a search-backed job pool reader.
func NewJobSearchStore(es *database.ElasticsearchClient, index string, log logger.Logger) *JobSearchStore {
	return &JobSearchStore{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "job_search_store"}),
	}
}

// jobDocument mirrors the indexed job shape.
type jobDocument struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	CompanyName      string   `json:"company_name"`
	CompanyLogo      string   `json:"company_logo"`
	JobURL           string   `json:"job_url"`
	Source           string   `json:"source"`
	RequiredSkills   []string `json:"required_skills"`
	LocationType     string   `json:"location_type"`
	EmployerID       int64    `json:"employer_id"`
	EmployerLocation string   `json:"employer_location"`
	Salary           string   `json:"salary"`
	PostedAt         string   `json:"posted_at"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source jobDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// AllJobs returns up to limit jobs from the index, newest first.
func (s *JobSearchStore) AllJobs(ctx context.Context, limit int) ([]*models.JobPost, error) {
	query := map[string]interface{}{
		"size": limit,
		"sort": []map[string]interface{}{
			{"posted_at": map[string]interface{}{"order": "desc"}},
		},
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(query); err != nil {
		return nil, fmt.Errorf("encode job search query: %w", err)
	}

	es := s.es.Client
	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(s.index),
		es.Search.WithBody(&body),
	)
	if err != nil {
		return nil, fmt.Errorf("job search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("job search returned %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode job search response: %w", err)
	}

	jobs := make([]*models.JobPost, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		jobs = append(jobs, hit.Source.toModel())
	}

	s.logger.Debug("job pool read from search", map[string]interface{}{
		"index": s.index,
		"count": len(jobs),
	})
	return jobs, nil
}

func (d jobDocument) toModel() *models.JobPost {
	j := &models.JobPost{
		ID:               d.ID,
		Title:            d.Title,
		Description:      d.Description,
		CompanyName:      d.CompanyName,
		CompanyLogo:      d.CompanyLogo,
		JobURL:           d.JobURL,
		Source:           d.Source,
		RequiredSkills:   d.RequiredSkills,
		LocationType:     models.LocationType(d.LocationType),
		EmployerID:       d.EmployerID,
		EmployerLocation: d.EmployerLocation,
		Salary:           d.Salary,
	}
	if d.PostedAt != "" {
		if t, err := time.Parse(time.RFC3339, d.PostedAt); err == nil {
			j.PostedAt = t
		}
	}
	return j
}
