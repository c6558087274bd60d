// internal/recommend/cascade/connections.go
package cascade

import (
	"context"
	"sort"

	"skillmatch-engine/internal/common/metrics"
	"skillmatch-engine/internal/models"
	"skillmatch-engine/internal/recommend/heuristic"
	"skillmatch-engine/internal/recommend/mlbridge"
	"skillmatch-engine/internal/recommend/narrative"
)

// mlSimilarityBonus converts a [0,1] similarity score into affinity points.
const mlSimilarityBonus = 20.0

// RecommendConnections ranks potential connections for a user. The offline
// ranking short-circuits everything; otherwise affinity scoring runs over
// the user pool, sweetened with ML similarity when the engine is up.
// Non-positive affinities are dropped. Never returns an error.
func (c *Cascade) RecommendConnections(ctx context.Context, user *models.User) ([]ScoredUser, string) {
	if scored, ok := c.precomputedConnections(ctx, user); ok {
		metrics.RecommendationsServed.WithLabelValues("connections", StagePrecomputed).Inc()
		return scored, StagePrecomputed
	}

	scored, stage := c.affinityConnections(ctx, user)
	metrics.RecommendationsServed.WithLabelValues("connections", stage).Inc()
	return scored, stage
}

func (c *Cascade) precomputedConnections(ctx context.Context, user *models.User) ([]ScoredUser, bool) {
	matches, err := c.matches.PrecomputedConnectionMatches(ctx, user.ID, c.cfg.ConnectionLimit)
	if err != nil {
		c.logger.Warn("precomputed connections unavailable", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		return nil, false
	}
	if len(matches) == 0 {
		return nil, false
	}

	scored := make([]ScoredUser, 0, len(matches))
	for i := range matches {
		scored = append(scored, ScoredUser{User: &matches[i].RecommendedUser, Score: matches[i].Score})
	}
	return dedupUsers(scored), true
}

func (c *Cascade) affinityConnections(ctx context.Context, user *models.User) ([]ScoredUser, string) {
	pool, err := c.users.AllUsers(ctx, c.cfg.CandidatePool)
	if err != nil {
		c.logger.Warn("user pool read failed", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		return []ScoredUser{}, StageNone
	}

	firstDegree, err := c.users.ConnectionsOf(ctx, user.ID)
	if err != nil {
		c.logger.Warn("connection graph read failed", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		firstDegree = nil
	}
	connected := make(map[int64]bool, len(firstDegree))
	for _, id := range firstDegree {
		connected[id] = true
	}

	// Strangers only: drop self and anyone already connected
	others := pool[:0]
	for _, u := range pool {
		if u.ID != user.ID && !connected[u.ID] {
			others = append(others, u)
		}
	}
	if len(others) == 0 {
		return []ScoredUser{}, StageNone
	}

	otherIDs := make([]int64, 0, len(others))
	for _, u := range others {
		otherIDs = append(otherIDs, u.ID)
	}
	mutuals, err := c.users.MutualConnectionCounts(ctx, user.ID, otherIDs)
	if err != nil {
		c.logger.Warn("mutual connection counts failed", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		mutuals = map[int64]int{}
	}

	similarity, similarityOK := c.similarityScores(ctx, user, others)
	stage := StageHeuristic
	if similarityOK {
		stage = StageML
	}

	scored := make([]ScoredUser, 0, len(others))
	for _, other := range others {
		score := heuristic.ConnectionAffinity(user, other, mutuals[other.ID])
		if similarityOK {
			score += similarity[other.ID] * mlSimilarityBonus
		}
		if score <= 0 {
			continue
		}
		scored = append(scored, ScoredUser{User: other, Score: score})
	}

	sort.SliceStable(scored, func(i, k int) bool {
		return scored[i].Score > scored[k].Score
	})
	scored = dedupUsers(scored)
	if len(scored) > c.cfg.ConnectionLimit {
		scored = scored[:c.cfg.ConnectionLimit]
	}
	return scored, stage
}

func (c *Cascade) similarityScores(ctx context.Context, user *models.User, others []*models.User) (map[int64]float64, bool) {
	profiles := make([]mlbridge.ProfilePayload, 0, len(others))
	for _, u := range others {
		profiles = append(profiles, mlbridge.ProfilePayload{
			ID:      u.ID,
			Profile: narrative.ForUser(u),
		})
	}

	scores, err := c.engine.RankSimilarUsers(ctx, narrative.ForUser(user), profiles)
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
