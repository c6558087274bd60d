// internal/recommend/narrative/narrative_test.go
package narrative

import (
	"testing"
	"time"

	"skillmatch-engine/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func createTestUser() *models.User {
	return &models.User{
		ID:       42,
		FullName: "Dana Smith",
		Skills:   []string{"Go", "SQL"},
		Experiences: []models.Experience{
			{
				JobTitle:    "Software Engineer",
				CompanyName: "Acme",
				Description: "Built the billing pipeline.",
				StartDate:   date(2020, 1, 1),
				EndDate:     date(2022, 1, 1),
			},
		},
	}
}

// ==========================
// User Narrative Tests
// ==========================

func TestForUser_FullProfile(t *testing.T) {
	got := ForUser(createTestUser())

	assert.Equal(t,
		"Software Engineer with 2.0 years of experience. Skilled in: Go, SQL. Worked at Acme as Software Engineer. Built the billing pipeline. ",
		got)
}

func TestForUser_EmptyProfile(t *testing.T) {
	got := ForUser(&models.User{ID: 1})

	assert.Equal(t, "Professional with 0.0 years of experience. ", got)
}

func TestForUser_NoSkills(t *testing.T) {
	u := createTestUser()
	u.Skills = nil

	got := ForUser(u)

	assert.NotContains(t, got, "Skilled in")
	assert.Contains(t, got, "Worked at Acme as Software Engineer.")
}

func TestForUser_ExperienceWithoutDescription(t *testing.T) {
	u := createTestUser()
	u.Experiences[0].Description = ""

	got := ForUser(u)

	assert.Equal(t,
		"Software Engineer with 2.0 years of experience. Skilled in: Go, SQL. Worked at Acme as Software Engineer. ",
		got)
}

// ==========================
// Job Narrative Tests
// ==========================

func TestForJob_WithSkills(t *testing.T) {
	job := &models.JobPost{
		Title:          "Backend Engineer",
		Description:    "Own the payments service",
		RequiredSkills: []string{"Go", "Postgres"},
	}

	got := ForJob(job)

	assert.Equal(t, "Backend Engineer. Own the payments service. Required skills: Go, Postgres", got)
}

func TestForJob_NoSkills(t *testing.T) {
	job := &models.JobPost{
		Title:       "Backend Engineer",
		Description: "Own the payments service",
	}

	got := ForJob(job)

	assert.Equal(t, "Backend Engineer. Own the payments service. ", got)
}

// ==========================
// Experience Years Tests
// ==========================

func TestTotalExperienceYears(t *testing.T) {
	now := date(2024, 1, 1)

	tests := []struct {
		name        string
		experiences []models.Experience
		want        float64
	}{
		{
			name: "closed entry",
			experiences: []models.Experience{
				{StartDate: date(2020, 1, 1), EndDate: date(2022, 1, 1)},
			},
			want: 2.0,
		},
		{
			name: "open entry counts up to now",
			experiences: []models.Experience{
				{StartDate: date(2023, 1, 1)},
			},
			want: 1.0,
		},
		{
			name: "entries accumulate",
			experiences: []models.Experience{
				{StartDate: date(2018, 1, 1), EndDate: date(2019, 1, 1)},
				{StartDate: date(2020, 1, 1), EndDate: date(2021, 7, 1)},
			},
			want: 2.5,
		},
		{
			name: "missing start date is skipped",
			experiences: []models.Experience{
				{EndDate: date(2022, 1, 1)},
			},
			want: 0,
		},
		{
			name: "end before start is skipped",
			experiences: []models.Experience{
				{StartDate: date(2022, 1, 1), EndDate: date(2020, 1, 1)},
			},
			want: 0,
		},
		{
			name: "no experiences",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &models.User{Experiences: tt.experiences}
			assert.InDelta(t, tt.want, TotalExperienceYears(u, now), 0.01)
		})
	}
}

// ==========================
// Posted-Ago Tests
// ==========================

func TestPostedAgo(t *testing.T) {
	now := date(2024, 6, 15)

	tests := []struct {
		name     string
		postedAt time.Time
		want     string
	}{
		{"hours under a day", now.Add(-5 * time.Hour), "5h"},
		{"exactly zero hours", now, "0h"},
		{"days after a day", now.Add(-49 * time.Hour), "2d"},
		{"zero timestamp defaults", time.Time{}, "1d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, postedAgoAt(tt.postedAt, now))
		})
	}
}
