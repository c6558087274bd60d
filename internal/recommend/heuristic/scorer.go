// internal/recommend/heuristic/scorer.go

// Package heuristic holds the deterministic fallback scorers used whenever
// the ML engine is unreachable or uninformative. All functions are
// side-effect free, return finite non-negative scores, and never divide by
// zero regardless of how sparse the input profiles are.
package heuristic

import (
	"strings"
	"time"

	"skillmatch-engine/internal/models"
	"skillmatch-engine/internal/recommend/narrative"
)

// Weights for JobMatchScore. Skill overlap dominates; location and
// seniority fit split the remainder.
const (
	skillWeight          = 60.0
	locationExactBonus   = 20.0
	locationRemoteBonus  = 15.0
	seniorityFitBonus    = 20.0
	seniorityPartialFit  = 5.0
	experienceFullBonus  = 40.0
	experienceSomeBonus  = 20.0
	mutualWeight         = 5.0
	sharedSkillWeight    = 3.0
	sharedSchoolWeight   = 10.0
	sharedEmployerWeight = 15.0
)

type titleClass int

const (
	midTitle titleClass = iota
	juniorTitle
	seniorTitle
)

// classifyTitle buckets a job title by substring match.
func classifyTitle(title string) titleClass {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "senior") || strings.Contains(t, "lead") || strings.Contains(t, "sr"):
		return seniorTitle
	case strings.Contains(t, "junior") || strings.Contains(t, "intern") || strings.Contains(t, "jr"):
		return juniorTitle
	default:
		return midTitle
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if n := normalize(v); n != "" {
			set[n] = true
		}
	}
	return set
}

// JobMatchScore rates how well a job fits a candidate, in [0, 100].
// Dimensions: skill overlap (60), location (20), seniority fit (20).
// A job with no required skills earns nothing on the skill dimension.
func JobMatchScore(job *models.JobPost, candidate *models.User) float64 {
	score := skillDimension(candidate.Skills, job.RequiredSkills)

	// Location: exact city match beats remote-friendliness
	candLoc := normalize(candidate.Location)
	empLoc := normalize(job.EmployerLocation)
	switch {
	case candLoc != "" && empLoc != "" && candLoc == empLoc:
		score += locationExactBonus
	case job.LocationType == models.LocationRemote:
		score += locationRemoteBonus
	}

	// Seniority: full credit on a match, partial credit otherwise so a
	// mismatched candidate still ranks above an empty profile
	years := narrative.TotalExperienceYears(candidate, time.Now())
	switch classifyTitle(job.Title) {
	case seniorTitle:
		if years >= 5 {
			score += seniorityFitBonus
		} else {
			score += seniorityPartialFit
		}
	case juniorTitle:
		if years < 2 {
			score += seniorityFitBonus
		} else {
			score += seniorityPartialFit
		}
	default:
		if years >= 2 && years < 6 {
			score += seniorityFitBonus
		} else {
			score += seniorityPartialFit
		}
	}

	return clamp(score)
}

// CandidateMatchScore rates how well a candidate fits a job from the
// employer's side, in [0, 100]. Dimensions: skill overlap (60),
// experience (40).
func CandidateMatchScore(candidate *models.User, job *models.JobPost) float64 {
	score := skillDimension(candidate.Skills, job.RequiredSkills)

	years := narrative.TotalExperienceYears(candidate, time.Now())
	switch classifyTitle(job.Title) {
	case seniorTitle:
		if years >= 5 {
			score += experienceFullBonus
		} else if years >= 1 {
			score += experienceSomeBonus
		}
	case juniorTitle:
		if years < 3 {
			score += experienceFullBonus
		} else if years >= 1 {
			score += experienceSomeBonus
		}
	default:
		if years >= 1 {
			score += experienceSomeBonus
		}
	}

	return clamp(score)
}

// skillDimension is (matched / required) * 60, with the empty-requirement
// case fixed to contribute zero.
func skillDimension(candidateSkills, requiredSkills []string) float64 {
	if len(requiredSkills) == 0 {
		return 0
	}
	required := normalizeSet(requiredSkills)
	if len(required) == 0 {
		return 0
	}
	have := normalizeSet(candidateSkills)
	matched := 0
	for s := range required {
		if have[s] {
			matched++
		}
	}
	return float64(matched) / float64(len(required)) * skillWeight
}

// SkillOverlapPercent is the raw overlap ratio in [0, 100], used as a
// blending input when ML scores are available.
func SkillOverlapPercent(candidateSkills, requiredSkills []string) float64 {
	if len(requiredSkills) == 0 {
		return 0
	}
	return skillDimension(candidateSkills, requiredSkills) / skillWeight * 100.0
}

// ExperienceFit grades candidate years against the years a title class
// implies (senior 5, junior 0, mid 2): within a year is 100, within three
// is 70, anything further is 40. Used as a blending input.
func ExperienceFit(years float64, jobTitle string) float64 {
	diff := years - RequiredYears(jobTitle)
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 1:
		return 100.0
	case diff <= 3:
		return 70.0
	default:
		return 40.0
	}
}

// RequiredYears is the experience a title class implies: senior 5, junior
// 0, anything else 2.
func RequiredYears(jobTitle string) float64 {
	switch classifyTitle(jobTitle) {
	case seniorTitle:
		return 5.0
	case juniorTitle:
		return 0.0
	default:
		return 2.0
	}
}

// ConnectionAffinity scores a potential connection, additively and
// unbounded: 5 per mutual connection, 3 per shared skill, 10 per shared
// school, 15 per shared former employer. Callers drop non-positive scores.
func ConnectionAffinity(user, other *models.User, mutualCount int) float64 {
	score := float64(mutualCount) * mutualWeight

	mySkills := normalizeSet(user.Skills)
	for _, s := range other.Skills {
		if mySkills[normalize(s)] {
			score += sharedSkillWeight
		}
	}

	mySchools := make(map[string]bool, len(user.Educations))
	for _, e := range user.Educations {
		if n := normalize(e.InstitutionName); n != "" {
			mySchools[n] = true
		}
	}
	for _, e := range other.Educations {
		if mySchools[normalize(e.InstitutionName)] {
			score += sharedSchoolWeight
		}
	}

	myEmployers := make(map[string]bool, len(user.Experiences))
	for _, e := range user.Experiences {
		if n := normalize(e.CompanyName); n != "" {
			myEmployers[n] = true
		}
	}
	for _, e := range other.Experiences {
		if myEmployers[normalize(e.CompanyName)] {
			score += sharedEmployerWeight
		}
	}

	return score
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
