// internal/recommend/service.go

// Package recommend is the engine facade. The service resolves subjects,
// runs the ranking cascade, caches whole result lists in Redis, and feeds
// the training log through the feedback recorder.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"skillmatch-engine/internal/common/config"
	"skillmatch-engine/internal/common/logger"
	"skillmatch-engine/internal/models"
	"skillmatch-engine/internal/recommend/cascade"
	"skillmatch-engine/internal/recommend/heuristic"
	"skillmatch-engine/internal/recommend/mlbridge"
	"skillmatch-engine/internal/recommend/narrative"
)

// Cascader runs the ranking pipelines.
type Cascader interface {
	RecommendJobs(ctx context.Context, candidate *models.User) ([]cascade.ScoredJob, string)
	RecommendAllJobsRanked(ctx context.Context, candidate *models.User) ([]cascade.ScoredJob, string)
	RecommendCandidates(ctx context.Context, job *models.JobPost) ([]cascade.ScoredUser, string)
	RecommendConnections(ctx context.Context, user *models.User) ([]cascade.ScoredUser, string)
}

// UserGetter resolves one user profile.
type UserGetter interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// JobGetter resolves one job post.
type JobGetter interface {
	GetByID(ctx context.Context, id int64) (*models.JobPost, error)
}

// MatchSummaryReader reads the online-materialized match table.
type MatchSummaryReader interface {
	CachedJobMatches(ctx context.Context, userID int64, limit int) ([]models.CachedJobMatch, error)
}

// ResultCache is the Redis surface for whole-list result caching.
type ResultCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Recorder is the training log surface.
type Recorder interface {
	LogShown(ctx context.Context, userID int64, itemType models.ItemType, itemIDs []int64)
	RecordInteraction(ctx context.Context, it *models.Interaction, ev *models.RecommendationEvent, fb *mlbridge.Feedback) error
	Flush()
}

// JobFeed is a served job recommendation list plus the cascade stage that
// produced it.
type JobFeed struct {
	Jobs  []cascade.ScoredJob `json:"jobs"`
	Stage string              `json:"stage"`
}

// UserFeed is a served user recommendation list plus its stage.
type UserFeed struct {
	Users []cascade.ScoredUser `json:"users"`
	Stage string               `json:"stage"`
}

// Service is the recommendation engine facade.
type Service struct {
	users    UserGetter
	jobs     JobGetter
	matches  MatchSummaryReader
	cascade  Cascader
	recorder Recorder
	cache    ResultCache
	cfg      config.RecommendConfig
	logger   logger.Logger
}

// NewService wires the facade. cache may be nil to disable result caching.
func NewService(users UserGetter, jobs JobGetter, matches MatchSummaryReader, casc Cascader, rec Recorder, cache ResultCache, cfg config.RecommendConfig, log logger.Logger) *Service {
	return &Service{
		users:    users,
		jobs:     jobs,
		matches:  matches,
		cascade:  casc,
		recorder: rec,
		cache:    cache,
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "recommend_service"}),
	}
}

func jobFeedCacheKey(userID int64) string {
	return fmt.Sprintf("rec:jobs:%d", userID)
}

// RecommendJobs returns the ranked job feed for a candidate. Whole feeds
// are cached in Redis; a cache hit skips the cascade but still logs the
// exposure, since the user sees the list either way.
func (s *Service) RecommendJobs(ctx context.Context, userID int64) (*JobFeed, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if feed := s.cachedJobFeed(ctx, userID); feed != nil {
		s.logShownJobs(ctx, userID, feed.Jobs)
		return feed, nil
	}

	jobs, stage := s.cascade.RecommendJobs(ctx, user)
	feed := &JobFeed{Jobs: jobs, Stage: stage}

	s.storeJobFeed(ctx, userID, feed)
	s.logShownJobs(ctx, userID, feed.Jobs)
	return feed, nil
}

// RecommendAllJobsRanked returns the whole job pool reordered for the
// candidate. Not result-cached: the pool is large and the reorder is
// cheap relative to serving it.
func (s *Service) RecommendAllJobsRanked(ctx context.Context, userID int64) (*JobFeed, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	jobs, stage := s.cascade.RecommendAllJobsRanked(ctx, user)
	feed := &JobFeed{Jobs: jobs, Stage: stage}
	s.logShownJobs(ctx, userID, feed.Jobs)
	return feed, nil
}

// RecommendCandidates returns the ranked candidate list for a job post.
// Exposures are attributed to the posting employer.
func (s *Service) RecommendCandidates(ctx context.Context, jobID int64) (*UserFeed, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	users, stage := s.cascade.RecommendCandidates(ctx, job)
	feed := &UserFeed{Users: users, Stage: stage}
	s.logShownUsers(ctx, job.EmployerID, feed.Users)
	return feed, nil
}

// RecommendConnections returns the ranked connection suggestions for a
// user.
func (s *Service) RecommendConnections(ctx context.Context, userID int64) (*UserFeed, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	users, stage := s.cascade.RecommendConnections(ctx, user)
	feed := &UserFeed{Users: users, Stage: stage}
	s.logShownUsers(ctx, userID, feed.Users)
	return feed, nil
}

// GetTopMatches returns the user's best online-materialized matches as
// summaries. limit <= 0 falls back to the configured default. Reading a
// report is not an exposure, so nothing is logged.
func (s *Service) GetTopMatches(ctx context.Context, userID int64, limit int) ([]models.JobMatchSummary, error) {
	if limit <= 0 {
		limit = s.cfg.TopMatchLimit
	}

	matches, err := s.matches.CachedJobMatches(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.JobMatchSummary, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		summaries = append(summaries, models.JobMatchSummary{
			JobID:          m.Job.ID,
			Title:          m.Job.Title,
			CompanyName:    m.Job.CompanyName,
			CompanyLogo:    m.Job.CompanyLogo,
			LocationType:   string(m.Job.LocationType),
			JobURL:         m.Job.JobURL,
			Source:         m.Job.Source,
			RequiredSkills: m.Job.RequiredSkills,
			Score:          m.Score,
			ComputedAt:     m.ComputedAt,
		})
	}
	return summaries, nil
}

// RecordInteraction persists a user action on a job, appends its training
// log event, pushes engine feedback, and invalidates the user's cached job
// feed. Replaying the same action logs it again: each occurrence is its
// own training example.
func (s *Service) RecordInteraction(ctx context.Context, userID, jobID int64, interactionType string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	it := models.Interaction{
		UserID:          userID,
		JobID:           jobID,
		InteractionType: interactionType,
		CreatedAt:       now,
	}
	ev := models.RecommendationEvent{
		UserID:    userID,
		ItemID:    jobID,
		ItemType:  models.ItemJob,
		EventType: eventTypeFor(interactionType),
		CreatedAt: now,
	}
	fb := feedbackFor(user, job, interactionType)

	if err := s.recorder.RecordInteraction(ctx, &it, &ev, fb); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, jobFeedCacheKey(userID)); err != nil {
			s.logger.Warn("failed to invalidate job feed cache", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}
	return nil
}

// Flush drains in-flight feedback pushes. Called on shutdown.
func (s *Service) Flush() {
	s.recorder.Flush()
}

func (s *Service) cachedJobFeed(ctx context.Context, userID int64) *JobFeed {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, jobFeedCacheKey(userID))
	if err != nil {
		return nil
	}
	var feed JobFeed
	if err := json.Unmarshal([]byte(raw), &feed); err != nil {
		s.logger.Warn("corrupt cached job feed", map[string]interface{}{"user_id": userID})
		return nil
	}
	return &feed
}

func (s *Service) storeJobFeed(ctx context.Context, userID int64, feed *JobFeed) {
	if s.cache == nil || len(feed.Jobs) == 0 {
		return
	}
	data, err := json.Marshal(feed)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, jobFeedCacheKey(userID), data, config.GetDuration(s.cfg.ResultCacheTTL)); err != nil {
		s.logger.Warn("failed to cache job feed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

func (s *Service) logShownJobs(ctx context.Context, userID int64, jobs []cascade.ScoredJob) {
	ids := make([]int64, 0, len(jobs))
	for _, sj := range jobs {
		ids = append(ids, sj.Job.ID)
	}
	s.recorder.LogShown(ctx, userID, models.ItemJob, ids)
}

func (s *Service) logShownUsers(ctx context.Context, userID int64, users []cascade.ScoredUser) {
	ids := make([]int64, 0, len(users))
	for _, su := range users {
		ids = append(ids, su.User.ID)
	}
	s.recorder.LogShown(ctx, userID, models.ItemConnection, ids)
}

// eventTypeFor maps a raw interaction to its training log event.
func eventTypeFor(interactionType string) models.EventType {
	switch strings.ToUpper(strings.TrimSpace(interactionType)) {
	case "APPLY", "APPLIED":
		return models.EventApplied
	case "CONNECT", "CONNECTED":
		return models.EventConnected
	default:
		return models.EventClicked
	}
}

// feedbackFor assembles the full training example the ML engine expects
// with an interaction.
func feedbackFor(user *models.User, job *models.JobPost, interactionType string) *mlbridge.Feedback {
	now := time.Now()
	return &mlbridge.Feedback{
		UserID: user.ID,
		JobID:  job.ID,
		Type:   interactionType,
		UserData: mlbridge.UserData{
			Bio:             user.Bio,
			Skills:          user.Skills,
			ExperienceYears: narrative.TotalExperienceYears(user, now),
			Location:        user.Location,
		},
		JobData: mlbridge.JobData{
			Description:        job.Description,
			Skills:             job.RequiredSkills,
			RequiredExperience: heuristic.RequiredYears(job.Title),
			Location:           job.EmployerLocation,
			PostedAgo:          narrative.PostedAgo(job.PostedAt),
		},
	}
}
