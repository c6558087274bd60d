// internal/models/job.go
package models

import "time"

// LocationType is the working arrangement of a job post.
type LocationType string

const (
	LocationOnsite LocationType = "ONSITE"
	LocationRemote LocationType = "REMOTE"
	LocationHybrid LocationType = "HYBRID"
)

// JobPost is a read-only snapshot of a job posting.
type JobPost struct {
	ID               int64        `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	CompanyName      string       `json:"companyName"`
	CompanyLogo      string       `json:"companyLogo,omitempty"`
	JobURL           string       `json:"jobUrl,omitempty"`
	Source           string       `json:"source,omitempty"`
	RequiredSkills   []string     `json:"requiredSkills"`
	LocationType     LocationType `json:"locationType"`
	EmployerID       int64        `json:"employerId,omitempty"`
	EmployerLocation string       `json:"employerLocation,omitempty"`
	Salary           string       `json:"salary,omitempty"`
	PostedAt         time.Time    `json:"postedAt,omitzero"`
}
