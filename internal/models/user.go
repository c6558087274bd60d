// internal/models/user.go
package models

import "time"

// Role classifies a platform user.
type Role string

const (
	RoleCandidate Role = "CANDIDATE"
	RoleEmployer  Role = "EMPLOYER"
	RoleUser      Role = "USER"
	RoleAdmin     Role = "ADMIN"
)

// User is a read-only snapshot of a platform user, as the engine sees it.
// Ownership stays with the persistence layer; the engine never mutates it.
type User struct {
	ID          int64        `json:"id"`
	FullName    string       `json:"fullName"`
	Email       string       `json:"email"`
	Role        Role         `json:"role"`
	Location    string       `json:"location"`
	Bio         string       `json:"bio"`
	Skills      []string     `json:"skills"`
	Experiences []Experience `json:"experiences"`
	Educations  []Education  `json:"educations"`
}

// Experience is a single employment entry. An open-ended position has a
// zero EndDate and counts up to now.
type Experience struct {
	JobTitle    string    `json:"jobTitle"`
	CompanyName string    `json:"companyName"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate,omitzero"`
}

// Education is a completed or ongoing degree entry.
type Education struct {
	InstitutionName string `json:"institutionName"`
	Degree          string `json:"degree"`
	YearStarted     int    `json:"yearStarted"`
	YearCompleted   int    `json:"yearCompleted"`
}
