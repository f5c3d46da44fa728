package types

import (
	"strings"
	"time"
)

// Experience types reported for a resume
const (
	ExperienceInternship = "internship"
	ExperienceFullTime   = "full-time"
	ExperienceBoth       = "both"
	ExperienceNone       = "none"
)

// Resume is the structured form of a candidate's resume
type Resume struct {
	Filename               string   `json:"filename"`
	Name                   string   `json:"name"`
	Email                  string   `json:"email"`
	Phone                  string   `json:"phone"`
	HighSchoolPercentage   *float64 `json:"high_school_percentage"`
	IntermediatePercentage *float64 `json:"intermediate_percentage"`
	BTechCGPA              *float64 `json:"btech_cgpa"`
	TechnicalSkills        []string `json:"technical_skills"`
	ProfessionalSkills     []string `json:"professional_skills"`
	InternshipExperience   []string `json:"internship_experience"`
	ExperienceYears        int      `json:"experience_years"`
	ExperienceType         string   `json:"experience_type"`
	HasCareerGaps          bool     `json:"has_career_gaps"`
}

// Criteria are the eligibility cutoffs of a job. Nil or zero cutoffs are not checked.
type Criteria struct {
	TenthPercentageCutoff      *float64 `json:"10th_percentage_cutoff"`
	TwelfthPercentageCutoff    *float64 `json:"12th_percentage_cutoff"`
	GraduationPercentageCutoff *float64 `json:"graduation_percentage_cutoff"`
	ExperienceCutoff           *float64 `json:"experience_cutoff"`
}

// JobDescription is the structured form of a job posting
type JobDescription struct {
	Filename                string   `json:"filename"`
	RequiredTechnicalSkills []string `json:"required_technical_skills"`
	RequiredSoftSkills      []string `json:"required_soft_or_professional_skills"`
	SalaryPackage           string   `json:"salary_package"`
	JobVenue                string   `json:"job_venue"`
	Criteria                Criteria `json:"criteria"`
}

// SkillMatch is the overlap between a candidate's skills and a required list
type SkillMatch struct {
	Percentage int      `json:"percentage"`
	Matched    []string `json:"matched"`
	Missing    []string `json:"missing"`
}

// MatchResult is an eligible candidate scored against a job
type MatchResult struct {
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	Phone                string   `json:"phone"`
	ResumeFilename       string   `json:"resume_filename"`
	JobName              string   `json:"job_name"`
	MatchPercentage      int      `json:"match_percentage"`
	CandidateSkills      []string `json:"candidate_skills"`
	MatchedSkills        []string `json:"matched_skills"`
	MissingSkills        []string `json:"missing_skills"`
	ExperienceYears      int      `json:"experience_years"`
	ExperienceType       string   `json:"experience_type"`
	HasCareerGaps        bool     `json:"has_career_gaps"`
	Stipend              string   `json:"stipend"`
	JobLocation          string   `json:"job_location"`
	InternshipExperience []string `json:"internship_experience"`
}

// MatchRunSummary reports a full matching run over stored documents
type MatchRunSummary struct {
	TotalMatches int            `json:"total_matches"`
	PerJob       map[string]int `json:"per_job"`
	Message      string         `json:"message"`
}

// StoreStats describes the contents of the document store
type StoreStats struct {
	TotalResumes         int    `json:"total_resumes"`
	TotalJobDescriptions int    `json:"total_job_descriptions"`
	TotalMatches         int    `json:"total_matches"`
	TotalLeaveRequests   int    `json:"total_leave_requests"`
	Database             string `json:"database"`
	Connection           string `json:"connection"`
	PolicySource         string `json:"policy_source"`
}

// StoredDocument carries the bookkeeping fields the store adds to a document
type StoredDocument struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	DocumentType string    `json:"document_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ResumeDocument is the input to resume extraction. Data holds PDF bytes when
// MIMEType is application/pdf, otherwise plain text.
type ResumeDocument struct {
	Filename string
	MIMEType string
	Data     []byte
}

// JobDocument is the input to job description extraction. A PDF posting carries
// its bytes in Data with MIMEType "application/pdf"; anything else is read from Text.
type JobDocument struct {
	Name     string
	Text     string
	MIMEType string
	Data     []byte
}

// IsPDF reports whether the posting is an attached PDF.
func (d JobDocument) IsPDF() bool {
	return d.MIMEType == "application/pdf" && len(d.Data) > 0
}

// Empty reports whether the posting has no content to extract.
func (d JobDocument) Empty() bool {
	return !d.IsPDF() && strings.TrimSpace(d.Text) == ""
}

// ParseReport lists what a directory parse stored and what it skipped
type ParseReport struct {
	Resumes []string          `json:"resumes"`
	Jobs    []string          `json:"jobs"`
	Failed  map[string]string `json:"failed"`
}
