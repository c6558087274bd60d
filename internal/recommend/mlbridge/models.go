// internal/recommend/mlbridge/models.go
package mlbridge

// ScoredID is one (item, score) pair from a ranking endpoint.
type ScoredID struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}

// UserData carries the structured feature fields sent alongside the user
// narrative.
type UserData struct {
	Bio             string   `json:"bio"`
	Skills          []string `json:"skills"`
	ExperienceYears float64  `json:"experience_years"`
	Location        string   `json:"location"`
}

// JobPayload is one job in a /recommend/jobs request.
type JobPayload struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Skills       []string `json:"skills"`
	LocationType string   `json:"location_type"`
	PostedAgo    string   `json:"posted_ago"`
}

// ProfilePayload is one profiled user in a candidate or similar-user
// ranking request.
type ProfilePayload struct {
	ID      int64  `json:"id"`
	Profile string `json:"profile"`
}

// JobData carries the job-side feature context of an interaction.
type JobData struct {
	Description        string   `json:"description"`
	Skills             []string `json:"skills"`
	RequiredExperience float64  `json:"required_experience"`
	Location           string   `json:"location"`
	PostedAgo          string   `json:"posted_ago"`
}

// Feedback is a /track/interaction payload: the interaction plus the full
// feature context the trainer needs to reproduce the example.
type Feedback struct {
	UserID   int64    `json:"user_id"`
	JobID    int64    `json:"job_id"`
	Type     string   `json:"type"`
	UserData UserData `json:"user_data"`
	JobData  JobData  `json:"job_data"`
}

type rankJobsRequest struct {
	UserProfile string       `json:"user_profile"`
	UserData    UserData     `json:"user_data"`
	Jobs        []JobPayload `json:"jobs"`
}

type rankCandidatesRequest struct {
	JobDescription string           `json:"job_description"`
	Candidates     []ProfilePayload `json:"candidates"`
}

type rankSimilarUsersRequest struct {
	UserProfile string           `json:"user_profile"`
	Others      []ProfilePayload `json:"others"`
}
