package ai

import "hrassist/internal/config"

// MaxExtractionChars caps the document text sent for extraction.
const MaxExtractionChars = 3000

// Prompts holds the system instruction and user template of one operation.
// User templates take the document or request as their single %s argument.
type Prompts struct {
	System string
	User   string
}

// DefaultPrompts are the built-in prompts per operation.
var DefaultPrompts = map[string]Prompts{
	config.OpResumeExtraction: {
		System: `You are a precise resume parser working for an HR team. You return JSON only.
Never invent information that is not in the resume. Use null for missing numbers.`,
		User: `Extract the candidate profile from the resume below.

Rules:
- numbers as numbers, null if missing
- experience_years is a whole number of years
- experience_type is "internship", "full-time", "both", or "none" based on the work experience mentioned
- has_career_gaps is true if there are unexplained gaps in the education or work timeline, false otherwise
- technical_skills lists tools, languages and technologies; professional_skills lists soft skills

Resume:
-----
%s
-----`,
	},
	config.OpJobExtraction: {
		System: `You are a precise job description parser working for an HR team. You return JSON only.
Never invent requirements that are not in the posting. Use null for missing values.`,
		User: `Extract the requirements of the job description below.

Rules:
- numbers as numbers, null if missing
- criteria hold the minimum 10th and 12th percentages, graduation percentage and years of experience
- salary_package and job_venue are copied as written, null if missing

Job description:
-----
%s
-----`,
	},
	config.OpLeaveSummary: {
		System: `You are an HR assistant that explains leave request decisions to HR staff.
The decision has already been made by company policy. Never change it, only explain it.`,
		User: `Write a short summary (at most five sentences) for HR of the leave request and policy
decision below. Mention the employee, the leave type, the number of days, the decision and every
violation or flag. Do not add recommendations that contradict the decision.

Request and decision:
-----
%s
-----`,
	},
}

// resolvePrompt picks the prompt loaded from a file, then the one set in configuration,
// then the built-in default.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
