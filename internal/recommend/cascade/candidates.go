// internal/recommend/cascade/candidates.go
package cascade

import (
	"context"
	"sort"
	"time"

	"skillmatch-engine/internal/common/metrics"
	"skillmatch-engine/internal/models"
	"skillmatch-engine/internal/recommend/heuristic"
	"skillmatch-engine/internal/recommend/mlbridge"
	"skillmatch-engine/internal/recommend/narrative"
)

// Blend weights for candidate ranking when semantic scores are available.
const (
	semanticWeight   = 0.5
	skillBlendWeight = 0.3
	expBlendWeight   = 0.2
)

// RecommendCandidates ranks candidates for a job post. With the ML engine
// up, each candidate gets a blend of semantic similarity, skill overlap,
// and experience fit; without it, the pure heuristic score. Candidates at
// or below the minimum score are dropped either way. Never returns an
// error.
func (c *Cascade) RecommendCandidates(ctx context.Context, job *models.JobPost) ([]ScoredUser, string) {
	pool, err := c.users.AllCandidates(ctx, c.cfg.CandidatePool)
	if err != nil {
		c.logger.Warn("candidate pool read failed", map[string]interface{}{
			"job_id": job.ID,
			"error":  err.Error(),
		})
		metrics.RecommendationsServed.WithLabelValues("candidates", StageNone).Inc()
		return []ScoredUser{}, StageNone
	}

	// The posting employer never shows up as their own candidate
	candidates := pool[:0]
	for _, u := range pool {
		if u.ID != job.EmployerID {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		metrics.RecommendationsServed.WithLabelValues("candidates", StageNone).Inc()
		return []ScoredUser{}, StageNone
	}

	semantic, semanticOK := c.semanticScores(ctx, job, candidates)

	now := time.Now()
	stage := StageHeuristic
	if semanticOK {
		stage = StageML
	}

	scored := make([]ScoredUser, 0, len(candidates))
	for _, u := range candidates {
		var score float64
		if semanticOK {
			overlap := heuristic.SkillOverlapPercent(u.Skills, job.RequiredSkills)
			expFit := heuristic.ExperienceFit(narrative.TotalExperienceYears(u, now), job.Title)
			score = (semanticWeight*semantic[u.ID] + skillBlendWeight*overlap/100.0 + expBlendWeight*expFit/100.0) * 100.0
		} else {
			score = heuristic.CandidateMatchScore(u, job)
		}
		if score <= c.cfg.MinCandidateScore {
			continue
		}
		scored = append(scored, ScoredUser{User: u, Score: score})
	}

	sort.SliceStable(scored, func(i, k int) bool {
		return scored[i].Score > scored[k].Score
	})
	scored = dedupUsers(scored)
	if len(scored) > c.cfg.CandidateLimit {
		scored = scored[:c.cfg.CandidateLimit]
	}

	metrics.RecommendationsServed.WithLabelValues("candidates", stage).Inc()
	return scored, stage
}

// semanticScores fetches ML similarity scores for the candidates, keyed by
// user id. A candidate the model skipped scores zero. Returns false when
// the engine is unavailable.
func (c *Cascade) semanticScores(ctx context.Context, job *models.JobPost, candidates []*models.User) (map[int64]float64, bool) {
	profiles := make([]mlbridge.ProfilePayload, 0, len(candidates))
	for _, u := range candidates {
		profiles = append(profiles, mlbridge.ProfilePayload{
			ID:      u.ID,
			Profile: narrative.ForUser(u),
		})
	}

	scores, err := c.engine.RankCandidates(ctx, narrative.ForJob(job), profiles)
	if err != nil {
		return nil, false
	}

	byID := make(map[int64]float64, len(scores))
	for _, s := range scores {
		if prev, ok := byID[s.ID]; !ok || s.Score > prev {
			byID[s.ID] = s.Score
		}
	}
	return byID, true
}
