// internal/recommend/cascade/jobs.go
package cascade

import (
	"context"
	"sort"
	"time"

	"skillmatch-engine/internal/models"
	"skillmatch-engine/internal/recommend/heuristic"
	"skillmatch-engine/internal/recommend/mlbridge"
	"skillmatch-engine/internal/recommend/narrative"
)

// RecommendJobs ranks jobs for a candidate through the full cascade:
// precomputed, cached, live ML, then heuristic. It never returns an error.
func (c *Cascade) RecommendJobs(ctx context.Context, candidate *models.User) ([]ScoredJob, string) {
	return c.runJobStrategies(ctx, "jobs", candidate, []jobStrategy{
		&precomputedJobs{c},
		&cachedJobs{c},
		&mlRankedJobs{c},
		&heuristicJobs{c},
	})
}

// precomputedJobs serves the offline ranking verbatim. Rank order is
// authoritative; scores ride along for display.
type precomputedJobs struct{ c *Cascade }

func (s *precomputedJobs) Name() string { return StagePrecomputed }

func (s *precomputedJobs) Score(ctx context.Context, candidate *models.User) ([]ScoredJob, error) {
	matches, err := s.c.matches.PrecomputedJobMatches(ctx, candidate.ID, s.c.cfg.JobLimit)
	if err != nil {
		return nil, err
	}
	jobs := make([]ScoredJob, 0, len(matches))
	for i := range matches {
		jobs = append(jobs, ScoredJob{Job: &matches[i].Job, Score: matches[i].Score})
	}
	return jobs, nil
}

// cachedJobs serves scores a previous online run materialized.
type cachedJobs struct{ c *Cascade }

func (s *cachedJobs) Name() string { return StageCached }

func (s *cachedJobs) Score(ctx context.Context, candidate *models.User) ([]ScoredJob, error) {
	matches, err := s.c.matches.CachedJobMatches(ctx, candidate.ID, s.c.cfg.CachedMatchLimit)
	if err != nil {
		return nil, err
	}
	jobs := make([]ScoredJob, 0, len(matches))
	for i := range matches {
		jobs = append(jobs, ScoredJob{Job: &matches[i].Job, Score: matches[i].Score})
	}
	if len(jobs) > s.c.cfg.JobLimit {
		jobs = jobs[:s.c.cfg.JobLimit]
	}
	return jobs, nil
}

// mlRankedJobs scores a bounded job pool through the ML engine and
// materializes the result into the online cache table for next time.
type mlRankedJobs struct{ c *Cascade }

func (s *mlRankedJobs) Name() string { return StageML }

func (s *mlRankedJobs) Score(ctx context.Context, candidate *models.User) ([]ScoredJob, error) {
	pool, err := s.c.jobs.AllJobs(ctx, s.c.cfg.JobPool)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}

	payloads := make([]mlbridge.JobPayload, 0, len(pool))
	for _, j := range pool {
		payloads = append(payloads, mlbridge.JobPayload{
			ID:           j.ID,
			Title:        j.Title,
			Description:  j.Description,
			Skills:       j.RequiredSkills,
			LocationType: string(j.LocationType),
			PostedAgo:    narrative.PostedAgo(j.PostedAt),
		})
	}

	scores, err := s.c.engine.RankJobs(ctx, narrative.ForUser(candidate), userData(candidate), payloads)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]float64, len(scores))
	for _, sc := range scores {
		if prev, ok := byID[sc.ID]; !ok || sc.Score > prev {
			byID[sc.ID] = sc.Score
		}
	}

	now := time.Now().UTC()
	jobs := make([]ScoredJob, 0, len(byID))
	for _, j := range pool {
		score, ok := byID[j.ID]
		if !ok {
			continue
		}
		jobs = append(jobs, ScoredJob{Job: j, Score: score})

		if err := s.c.matches.UpsertCachedJobMatch(ctx, models.CachedJobMatch{
			UserID:     candidate.ID,
			Job:        *j,
			Score:      score,
			ComputedAt: now,
		}); err != nil {
			s.c.logger.Warn("failed to materialize ml score", map[string]interface{}{
				"user_id": candidate.ID,
				"job_id":  j.ID,
				"error":   err.Error(),
			})
		}
	}

	sortJobsByScore(jobs)
	if len(jobs) > s.c.cfg.JobLimit {
		jobs = jobs[:s.c.cfg.JobLimit]
	}
	return jobs, nil
}

// heuristicJobs is the terminal stage: deterministic scoring of the job
// pool, always available.
type heuristicJobs struct{ c *Cascade }

func (s *heuristicJobs) Name() string { return StageHeuristic }

func (s *heuristicJobs) Score(ctx context.Context, candidate *models.User) ([]ScoredJob, error) {
	pool, err := s.c.jobs.AllJobs(ctx, s.c.cfg.JobPool)
	if err != nil {
		return nil, err
	}

	jobs := make([]ScoredJob, 0, len(pool))
	for _, j := range pool {
		jobs = append(jobs, ScoredJob{Job: j, Score: heuristic.JobMatchScore(j, candidate)})
	}

	sortJobsByScore(jobs)
	if len(jobs) > s.c.cfg.JobLimit {
		jobs = jobs[:s.c.cfg.JobLimit]
	}
	return jobs, nil
}

// sortJobsByScore orders best score first, breaking ties by recency.
func sortJobsByScore(jobs []ScoredJob) {
	sort.SliceStable(jobs, func(i, k int) bool {
		if jobs[i].Score != jobs[k].Score {
			return jobs[i].Score > jobs[k].Score
		}
		return jobs[i].Job.PostedAt.After(jobs[k].Job.PostedAt)
	})
}

func userData(u *models.User) mlbridge.UserData {
	return mlbridge.UserData{
		Bio:             u.Bio,
		Skills:          u.Skills,
		ExperienceYears: narrative.TotalExperienceYears(u, time.Now()),
		Location:        u.Location,
	}
}
