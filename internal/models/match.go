// internal/models/match.go
package models

import "time"

// PrecomputedJobMatch is an offline-ranked (user, job) record produced by
// the batch training pipeline. The engine only reads these, ordered by
// rank ascending; rank is authoritative over raw score.
type PrecomputedJobMatch struct {
	UserID     int64     `json:"userId"`
	Job        JobPost   `json:"job"`
	Score      float64   `json:"score"`
	Rank       int       `json:"rank"`
	ComputedAt time.Time `json:"computedAt"`
}

// PrecomputedConnectionMatch is the connection counterpart of
// PrecomputedJobMatch.
type PrecomputedConnectionMatch struct {
	UserID          int64     `json:"userId"`
	RecommendedUser User      `json:"recommendedUser"`
	Score           float64   `json:"score"`
	Rank            int       `json:"rank"`
	ComputedAt      time.Time `json:"computedAt"`
}

// CachedJobMatch is an online-materialized (candidate, job) score, upserted
// idempotently keyed by (subject, item).
type CachedJobMatch struct {
	UserID     int64     `json:"userId"`
	Job        JobPost   `json:"job"`
	Score      float64   `json:"score"`
	ComputedAt time.Time `json:"computedAt"`
}

// JobMatchSummary is the caller-facing view of a cached match.
type JobMatchSummary struct {
	JobID          int64     `json:"jobId"`
	Title          string    `json:"title"`
	CompanyName    string    `json:"companyName"`
	CompanyLogo    string    `json:"companyLogo,omitempty"`
	LocationType   string    `json:"locationType"`
	JobURL         string    `json:"jobUrl,omitempty"`
	Source         string    `json:"source,omitempty"`
	RequiredSkills []string  `json:"requiredSkills"`
	Score          float64   `json:"score"`
	ComputedAt     time.Time `json:"computedAt"`
}
