package matching

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"hrassist/internal/types"
)

// Composite score weights.
const (
	TechnicalWeight    = 0.7
	SoftWeight         = 0.3
	ExperiencePerYear  = 2
	MaxExperienceBonus = 10
	MaxScore           = 100
)

// SkillOverlap computes how many required skills the candidate covers. A required
// skill counts as covered when it contains, or is contained in, any candidate skill
// after trimming and lower-casing. The percentage is truncated, not rounded.
func SkillOverlap(candidate, required []string) types.SkillMatch {
	if len(required) == 0 || len(candidate) == 0 {
		missing := slices.Clone(required)
		if missing == nil {
			missing = []string{}
		}
		return types.SkillMatch{Percentage: 0, Matched: []string{}, Missing: missing}
	}

	cand := normalize(candidate)
	matched := []string{}
	missing := []string{}

	for _, skill := range normalize(required) {
		if covers(cand, skill) {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}

	return types.SkillMatch{
		Percentage: len(matched) * 100 / len(required),
		Matched:    matched,
		Missing:    missing,
	}
}

func covers(candidate []string, skill string) bool {
	for _, c := range candidate {
		if strings.Contains(c, skill) || strings.Contains(skill, c) {
			return true
		}
	}
	return false
}

func normalize(skills []string) []string {
	out := make([]string, len(skills))
	for i, s := range skills {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

// CheckEligibility applies the academic and experience cutoffs of a job. Unset or
// zero cutoffs are skipped; an academic cutoff fails when the candidate has no score.
func CheckEligibility(resume types.Resume, criteria types.Criteria) bool {
	if !meetsCutoff(resume.HighSchoolPercentage, criteria.TenthPercentageCutoff) {
		return false
	}
	if !meetsCutoff(resume.IntermediatePercentage, criteria.TwelfthPercentageCutoff) {
		return false
	}
	if !meetsCutoff(resume.BTechCGPA, criteria.GraduationPercentageCutoff) {
		return false
	}
	if active(criteria.ExperienceCutoff) && float64(resume.ExperienceYears) < *criteria.ExperienceCutoff {
		return false
	}
	return true
}

func meetsCutoff(score, cutoff *float64) bool {
	if !active(cutoff) {
		return true
	}
	if score == nil || *score == 0 {
		return false
	}
	return *score >= *cutoff
}

func active(cutoff *float64) bool {
	return cutoff != nil && *cutoff != 0
}

// OverallScore blends technical and soft skill percentages and adds an experience
// bonus of two points per year, capped at ten. The result is capped at 100 and
// rounded half to even.
func OverallScore(technical, soft, experienceYears int) int {
	score := float64(technical)*TechnicalWeight + float64(soft)*SoftWeight
	if experienceYears > 0 {
		score += float64(min(experienceYears*ExperiencePerYear, MaxExperienceBonus))
	}
	return int(math.RoundToEven(math.Min(score, MaxScore)))
}

// MatchCandidate scores one resume against one job. It reports false when the
// candidate is not eligible or scores zero.
func MatchCandidate(resume types.Resume, job types.JobDescription) (types.MatchResult, bool) {
	if !CheckEligibility(resume, job.Criteria) {
		return types.MatchResult{}, false
	}

	tech := SkillOverlap(resume.TechnicalSkills, job.RequiredTechnicalSkills)
	soft := SkillOverlap(resume.ProfessionalSkills, job.RequiredSoftSkills)

	years := max(resume.ExperienceYears, 0)
	overall := OverallScore(tech.Percentage, soft.Percentage, years)
	if overall <= 0 {
		return types.MatchResult{}, false
	}

	name := resume.Name
	if name == "" {
		name = resume.Filename
	}

	return types.MatchResult{
		Name:                 name,
		Email:                resume.Email,
		Phone:                resume.Phone,
		ResumeFilename:       resume.Filename,
		JobName:              job.Filename,
		MatchPercentage:      overall,
		CandidateSkills:      concat(resume.TechnicalSkills, resume.ProfessionalSkills),
		MatchedSkills:        concat(tech.Matched, soft.Matched),
		MissingSkills:        concat(tech.Missing, soft.Missing),
		ExperienceYears:      years,
		ExperienceType:       resume.ExperienceType,
		HasCareerGaps:        resume.HasCareerGaps,
		Stipend:              job.SalaryPackage,
		JobLocation:          job.JobVenue,
		InternshipExperience: resume.InternshipExperience,
	}, true
}

// RankMatches sorts results by match percentage, best first, then by name and
// resume filename. The store lists matches in the same order.
func RankMatches(results []types.MatchResult) {
	slices.SortStableFunc(results, func(a, b types.MatchResult) int {
		return cmp.Or(
			cmp.Compare(b.MatchPercentage, a.MatchPercentage),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.ResumeFilename, b.ResumeFilename),
		)
	})
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
