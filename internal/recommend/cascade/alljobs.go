// internal/recommend/cascade/alljobs.go
package cascade

import (
	"context"
	"sort"

	"skillmatch-engine/internal/common/metrics"
	"skillmatch-engine/internal/models"
	"skillmatch-engine/internal/recommend/heuristic"
)

// RecommendAllJobsRanked returns the entire job pool reordered for the
// candidate. When an offline ranking exists it is authoritative: ranked
// jobs lead in rank order, the remainder follows newest first. Without one
// the pool falls back to heuristic score order. Never returns an error.
func (c *Cascade) RecommendAllJobsRanked(ctx context.Context, candidate *models.User) ([]ScoredJob, string) {
	pool, err := c.jobs.AllJobs(ctx, c.cfg.JobPool)
	if err != nil {
		c.logger.Warn("job pool read failed", map[string]interface{}{
			"user_id": candidate.ID,
			"error":   err.Error(),
		})
		metrics.RecommendationsServed.WithLabelValues("all_jobs", StageNone).Inc()
		return []ScoredJob{}, StageNone
	}

	matches, err := c.matches.PrecomputedJobMatches(ctx, candidate.ID, c.cfg.JobPool)
	if err != nil || len(matches) == 0 {
		if err != nil {
			c.logger.Warn("precomputed ranking unavailable, using heuristic order", map[string]interface{}{
				"user_id": candidate.ID,
				"error":   err.Error(),
			})
		}
		jobs := make([]ScoredJob, 0, len(pool))
		for _, j := range pool {
			jobs = append(jobs, ScoredJob{Job: j, Score: heuristic.JobMatchScore(j, candidate)})
		}
		sortJobsByScore(jobs)
		metrics.RecommendationsServed.WithLabelValues("all_jobs", StageHeuristic).Inc()
		return dedupJobs(jobs), StageHeuristic
	}

	ranked := make(map[int64]int, len(matches))
	scores := make(map[int64]float64, len(matches))
	for i := range matches {
		id := matches[i].Job.ID
		if _, ok := ranked[id]; !ok {
			ranked[id] = matches[i].Rank
			scores[id] = matches[i].Score
		}
	}

	jobs := make([]ScoredJob, 0, len(pool))
	for _, j := range pool {
		jobs = append(jobs, ScoredJob{Job: j, Score: scores[j.ID]})
	}

	// Ranked jobs first in rank order, everything else newest first
	sort.SliceStable(jobs, func(i, k int) bool {
		ri, iRanked := ranked[jobs[i].Job.ID]
		rk, kRanked := ranked[jobs[k].Job.ID]
		switch {
		case iRanked && kRanked:
			return ri < rk
		case iRanked:
			return true
		case kRanked:
			return false
		default:
			return jobs[i].Job.PostedAt.After(jobs[k].Job.PostedAt)
		}
	})

	metrics.RecommendationsServed.WithLabelValues("all_jobs", StagePrecomputed).Inc()
	return dedupJobs(jobs), StagePrecomputed
}
