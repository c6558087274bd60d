// internal/recommend/narrative/narrative.go

// Package narrative converts user profiles and job posts into the compact
// textual feature representations the ML engine scores, and that operators
// read when auditing a ranking decision. Everything here is a pure function
// of its input: no I/O, no failure modes, empty inputs just shorten the text.
package narrative

import (
	"fmt"
	"strings"
	"time"

	"skillmatch-engine/internal/models"
)

// ForUser builds the candidate narrative: latest role, total years with one
// decimal place, the skill list, then one sentence per experience entry.
func ForUser(u *models.User) string {
	var b strings.Builder

	latestTitle := "Professional"
	if len(u.Experiences) > 0 && u.Experiences[0].JobTitle != "" {
		latestTitle = u.Experiences[0].JobTitle
	}
	years := TotalExperienceYears(u, time.Now())

	b.WriteString(latestTitle)
	b.WriteString(" with ")
	b.WriteString(fmt.Sprintf("%.1f", years))
	b.WriteString(" years of experience. ")

	if len(u.Skills) > 0 {
		b.WriteString("Skilled in: ")
		b.WriteString(strings.Join(u.Skills, ", "))
		b.WriteString(". ")
	}

	for _, e := range u.Experiences {
		b.WriteString("Worked at ")
		b.WriteString(e.CompanyName)
		b.WriteString(" as ")
		b.WriteString(e.JobTitle)
		b.WriteString(". ")
		if e.Description != "" {
			b.WriteString(e.Description)
			b.WriteString(" ")
		}
	}

	return b.String()
}

// ForJob builds the job narrative: title, description and the comma-joined
// required skill list.
func ForJob(j *models.JobPost) string {
	var b strings.Builder
	b.WriteString(j.Title)
	b.WriteString(". ")
	b.WriteString(j.Description)
	b.WriteString(". ")
	if len(j.RequiredSkills) > 0 {
		b.WriteString("Required skills: ")
		b.WriteString(strings.Join(j.RequiredSkills, ", "))
	}
	return b.String()
}

// TotalExperienceYears sums (end - start) across experience entries in
// years. An open end date counts up to now.
func TotalExperienceYears(u *models.User, now time.Time) float64 {
	var total float64
	for _, e := range u.Experiences {
		if e.StartDate.IsZero() {
			continue
		}
		end := e.EndDate
		if end.IsZero() {
			end = now
		}
		months := monthsBetween(e.StartDate, end)
		if months > 0 {
			total += float64(months) / 12.0
		}
	}
	return total
}

// monthsBetween counts whole calendar months from start to end.
func monthsBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	return months
}

// PostedAgo encodes a posting timestamp relative to now: "<N>h" while under
// 24 hours old, "<N>d" after. A zero timestamp defaults to "1d".
func PostedAgo(postedAt time.Time) string {
	return postedAgoAt(postedAt, time.Now())
}

func postedAgoAt(postedAt, now time.Time) string {
	if postedAt.IsZero() {
		return "1d"
	}
	hours := int(now.Sub(postedAt).Hours())
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dd", hours/24)
}
