// internal/recommend/cascade/cascade.go

// Package cascade runs the ranking pipeline: an ordered list of scoring
// strategies where the first one to produce results wins. Precomputed
// offline rankings come first, then online-cached scores, then live ML
// scoring, and finally the deterministic heuristics. A strategy error is a
// stage miss, never a caller-visible failure: the cascade always returns a
// list, possibly empty.
package cascade

import (
	"context"

	"skillmatch-engine/internal/common/config"
	"skillmatch-engine/internal/common/logger"
	"skillmatch-engine/internal/common/metrics"
	"skillmatch-engine/internal/models"
	"skillmatch-engine/internal/recommend/mlbridge"
)

// Stage labels, in cascade order.
const (
	StagePrecomputed = "precomputed"
	StageCached      = "cached"
	StageML          = "ml"
	StageHeuristic   = "heuristic"
	StageNone        = "none"
)

// ScoredJob is one ranked job in a recommendation list.
type ScoredJob struct {
	Job   *models.JobPost `json:"job"`
	Score float64         `json:"score"`
}

// ScoredUser is one ranked user in a candidate or connection list.
type ScoredUser struct {
	User  *models.User `json:"user"`
	Score float64      `json:"score"`
}

// JobLister is the bounded job pool read. Satisfied by both the SQL and
// the Elasticsearch job stores.
type JobLister interface {
	AllJobs(ctx context.Context, limit int) ([]*models.JobPost, error)
}

// UserReader is the user pool and connection graph surface the cascade
// needs.
type UserReader interface {
	AllCandidates(ctx context.Context, limit int) ([]*models.User, error)
	AllUsers(ctx context.Context, limit int) ([]*models.User, error)
	ConnectionsOf(ctx context.Context, userID int64) ([]int64, error)
	MutualConnectionCounts(ctx context.Context, userID int64, otherIDs []int64) (map[int64]int, error)
}

// MatchReader reads the offline match tables and owns the online cache
// table.
type MatchReader interface {
	PrecomputedJobMatches(ctx context.Context, userID int64, limit int) ([]models.PrecomputedJobMatch, error)
	PrecomputedConnectionMatches(ctx context.Context, userID int64, limit int) ([]models.PrecomputedConnectionMatch, error)
	CachedJobMatches(ctx context.Context, userID int64, limit int) ([]models.CachedJobMatch, error)
	UpsertCachedJobMatch(ctx context.Context, m models.CachedJobMatch) error
}

// Ranker is the live ML scoring surface.
type Ranker interface {
	RankJobs(ctx context.Context, userProfile string, user mlbridge.UserData, jobs []mlbridge.JobPayload) ([]mlbridge.ScoredID, error)
	RankCandidates(ctx context.Context, jobDescription string, candidates []mlbridge.ProfilePayload) ([]mlbridge.ScoredID, error)
	RankSimilarUsers(ctx context.Context, userProfile string, others []mlbridge.ProfilePayload) ([]mlbridge.ScoredID, error)
}

// Cascade wires the scoring strategies to their data sources.
type Cascade struct {
	jobs    JobLister
	users   UserReader
	matches MatchReader
	engine  Ranker
	cfg     config.RecommendConfig
	logger  logger.Logger
}

// New builds a cascade over the given sources.
func New(jobs JobLister, users UserReader, matches MatchReader, engine Ranker, cfg config.RecommendConfig, log logger.Logger) *Cascade {
	return &Cascade{
		jobs:    jobs,
		users:   users,
		matches: matches,
		engine:  engine,
		cfg:     cfg,
		logger:  log.WithFields(map[string]interface{}{"component": "cascade"}),
	}
}

// jobStrategy is one stage of a job-ranking cascade.
type jobStrategy interface {
	Name() string
	Score(ctx context.Context, candidate *models.User) ([]ScoredJob, error)
}

// runJobStrategies walks the stages in order and returns the first
// non-empty result along with the stage that produced it.
func (c *Cascade) runJobStrategies(ctx context.Context, kind string, candidate *models.User, strategies []jobStrategy) ([]ScoredJob, string) {
	for _, s := range strategies {
		jobs, err := s.Score(ctx, candidate)
		if err != nil {
			c.logger.Warn("job strategy failed, falling through", map[string]interface{}{
				"stage":   s.Name(),
				"user_id": candidate.ID,
				"error":   err.Error(),
			})
			continue
		}
		if len(jobs) > 0 {
			metrics.RecommendationsServed.WithLabelValues(kind, s.Name()).Inc()
			return dedupJobs(jobs), s.Name()
		}
	}
	metrics.RecommendationsServed.WithLabelValues(kind, StageNone).Inc()
	return []ScoredJob{}, StageNone
}

// dedupJobs drops repeated job ids, keeping the first position and the best
// score seen. Position is kept because upstream order is authoritative.
func dedupJobs(jobs []ScoredJob) []ScoredJob {
	seen := make(map[int64]int, len(jobs))
	out := jobs[:0]
	for _, sj := range jobs {
		if idx, ok := seen[sj.Job.ID]; ok {
			if sj.Score > out[idx].Score {
				out[idx].Score = sj.Score
			}
			continue
		}
		seen[sj.Job.ID] = len(out)
		out = append(out, sj)
	}
	return out
}

// dedupUsers is dedupJobs for user lists.
func dedupUsers(users []ScoredUser) []ScoredUser {
	seen := make(map[int64]int, len(users))
	out := users[:0]
	for _, su := range users {
		if idx, ok := seen[su.User.ID]; ok {
			if su.Score > out[idx].Score {
				out[idx].Score = su.Score
			}
			continue
		}
		seen[su.User.ID] = len(out)
		out = append(out, su)
	}
	return out
}
