package formatters

import (
	"fmt"
	"slices"
	"strings"

	"hrassist/internal/types"
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func writeMatchText(b *strings.Builder, prefix string, m types.MatchResult) {
	fmt.Fprintf(b, "%s%s <%s> %s - %d%%\n", prefix, m.Name, m.Email, m.Phone, m.MatchPercentage)
	indent := strings.Repeat(" ", len(prefix))
	fmt.Fprintf(b, "%sResume: %s\n", indent, m.ResumeFilename)
	fmt.Fprintf(b, "%sMatched skills: %s\n", indent, listOrNone(m.MatchedSkills))
	fmt.Fprintf(b, "%sMissing skills: %s\n", indent, listOrNone(m.MissingSkills))
	fmt.Fprintf(b, "%sExperience: %d years (%s), career gaps: %s\n", indent, m.ExperienceYears, m.ExperienceType, yesNo(m.HasCareerGaps))
	if len(m.InternshipExperience) > 0 {
		fmt.Fprintf(b, "%sInternships: %s\n", indent, strings.Join(m.InternshipExperience, "; "))
	}
}

func matchResultText(m types.MatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "MATCH RESULT FOR %s\n", m.JobName)
	if m.Stipend != "" || m.JobLocation != "" {
		fmt.Fprintf(&b, "Stipend: %s, Location: %s\n", orDash(m.Stipend), orDash(m.JobLocation))
	}
	b.WriteString("\n")
	writeMatchText(&b, "", m)
	return strings.TrimSuffix(b.String(), "\n")
}

func matchResultsText(results []types.MatchResult) string {
	if len(results) == 0 {
		return "No matching candidates."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "MATCHES FOR %s (%d)\n\n", results[0].JobName, len(results))
	for i, m := range results {
		writeMatchText(&b, fmt.Sprintf("%d. ", i+1), m)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func matchResultMarkdown(m types.MatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Match: %s for %s\n\n", m.Name, m.JobName)
	fmt.Fprintf(&b, "**Match:** %d%%\n\n", m.MatchPercentage)
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Email | %s |\n", m.Email)
	fmt.Fprintf(&b, "| Phone | %s |\n", m.Phone)
	fmt.Fprintf(&b, "| Resume | %s |\n", m.ResumeFilename)
	fmt.Fprintf(&b, "| Experience | %d years (%s) |\n", m.ExperienceYears, m.ExperienceType)
	fmt.Fprintf(&b, "| Career Gaps | %s |\n", yesNo(m.HasCareerGaps))
	fmt.Fprintf(&b, "| Stipend | %s |\n", orDash(m.Stipend))
	fmt.Fprintf(&b, "| Location | %s |\n\n", orDash(m.JobLocation))
	fmt.Fprintf(&b, "**Matched skills:** %s\n\n", listOrNone(m.MatchedSkills))
	fmt.Fprintf(&b, "**Missing skills:** %s\n", listOrNone(m.MissingSkills))
	return b.String()
}

func matchResultsMarkdown(results []types.MatchResult) string {
	if len(results) == 0 {
		return "No matching candidates.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Matches for %s\n\n", results[0].JobName)
	b.WriteString("| # | Candidate | Email | Match | Experience | Missing Skills |\n|---|---|---|---|---|---|\n")
	for i, m := range results {
		fmt.Fprintf(&b, "| %d | %s | %s | %d%% | %d years | %s |\n",
			i+1, m.Name, m.Email, m.MatchPercentage, m.ExperienceYears, listOrNone(m.MissingSkills))
	}
	return b.String()
}

func matchRunText(s types.MatchRunSummary) string {
	return s.Message
}

func matchRunMarkdown(s types.MatchRunSummary) string {
	var b strings.Builder
	b.WriteString("# Matching Run\n\n")
	fmt.Fprintf(&b, "**Total matches:** %d\n\n", s.TotalMatches)
	if len(s.PerJob) == 0 {
		fmt.Fprintf(&b, "%s\n", s.Message)
		return b.String()
	}
	b.WriteString("| Job | Matches |\n|---|---|\n")
	jobs := make([]string, 0, len(s.PerJob))
	for job := range s.PerJob {
		jobs = append(jobs, job)
	}
	slices.Sort(jobs)
	for _, job := range jobs {
		fmt.Fprintf(&b, "| %s | %d |\n", job, s.PerJob[job])
	}
	return b.String()
}

func storeStatsText(s types.StoreStats) string {
	return strings.Join([]string{
		"DOCUMENT STORE",
		fmt.Sprintf("Database: %s", s.Database),
		fmt.Sprintf("Connection: %s", s.Connection),
		fmt.Sprintf("Resumes: %d", s.TotalResumes),
		fmt.Sprintf("Job descriptions: %d", s.TotalJobDescriptions),
		fmt.Sprintf("Matches: %d", s.TotalMatches),
		fmt.Sprintf("Leave requests: %d", s.TotalLeaveRequests),
		fmt.Sprintf("Policy source: %s", orDash(s.PolicySource)),
	}, "\n")
}

func storeStatsMarkdown(s types.StoreStats) string {
	var b strings.Builder
	b.WriteString("# Document Store\n\n| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Database | %s |\n", s.Database)
	fmt.Fprintf(&b, "| Connection | %s |\n", s.Connection)
	fmt.Fprintf(&b, "| Resumes | %d |\n", s.TotalResumes)
	fmt.Fprintf(&b, "| Job descriptions | %d |\n", s.TotalJobDescriptions)
	fmt.Fprintf(&b, "| Matches | %d |\n", s.TotalMatches)
	fmt.Fprintf(&b, "| Leave requests | %d |\n", s.TotalLeaveRequests)
	fmt.Fprintf(&b, "| Policy source | %s |\n", orDash(s.PolicySource))
	return b.String()
}

func failedPaths(failed map[string]string) []string {
	paths := make([]string, 0, len(failed))
	for path := range failed {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}

func parseReportText(r types.ParseReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stored %d resumes and %d job descriptions\n", len(r.Resumes), len(r.Jobs))
	fmt.Fprintf(&b, "Resumes: %s\n", listOrNone(r.Resumes))
	fmt.Fprintf(&b, "Job descriptions: %s\n", listOrNone(r.Jobs))
	if len(r.Failed) > 0 {
		fmt.Fprintf(&b, "\nFAILED (%d):\n", len(r.Failed))
		for _, path := range failedPaths(r.Failed) {
			fmt.Fprintf(&b, "- %s: %s\n", path, r.Failed[path])
		}
	}
	return b.String()
}

func parseReportMarkdown(r types.ParseReport) string {
	var b strings.Builder
	b.WriteString("# Document Parse\n\n")
	fmt.Fprintf(&b, "**Resumes (%d):** %s\n\n", len(r.Resumes), listOrNone(r.Resumes))
	fmt.Fprintf(&b, "**Job descriptions (%d):** %s\n", len(r.Jobs), listOrNone(r.Jobs))
	if len(r.Failed) > 0 {
		b.WriteString("\n## Failed\n\n| File | Error |\n|---|---|\n")
		for _, path := range failedPaths(r.Failed) {
			fmt.Fprintf(&b, "| %s | %s |\n", path, r.Failed[path])
		}
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
