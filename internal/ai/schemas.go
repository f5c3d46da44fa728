package ai

import "google.golang.org/genai"

func boolPtr(b bool) *bool { return &b }

func stringList() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

func nullableNumber() *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber, Nullable: boolPtr(true)}
}

func resumeSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":                    {Type: genai.TypeString},
			"email":                   {Type: genai.TypeString},
			"phone":                   {Type: genai.TypeString},
			"high_school_percentage":  nullableNumber(),
			"intermediate_percentage": nullableNumber(),
			"btech_cgpa":              nullableNumber(),
			"technical_skills":        stringList(),
			"professional_skills":     stringList(),
			"internship_experience":   stringList(),
			"experience_years":        {Type: genai.TypeInteger},
			"experience_type": {
				Type: genai.TypeString,
				Enum: []string{"internship", "full-time", "both", "none"},
			},
			"has_career_gaps": {Type: genai.TypeBoolean},
		},
		Required: []string{"name", "technical_skills", "professional_skills", "experience_years", "experience_type", "has_career_gaps"},
	}
}

func jobSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"required_technical_skills":            stringList(),
			"required_soft_or_professional_skills": stringList(),
			"salary_package":                       {Type: genai.TypeString, Nullable: boolPtr(true)},
			"job_venue":                            {Type: genai.TypeString, Nullable: boolPtr(true)},
			"criteria": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"10th_percentage_cutoff":       nullableNumber(),
					"12th_percentage_cutoff":       nullableNumber(),
					"graduation_percentage_cutoff": nullableNumber(),
					"experience_cutoff":            nullableNumber(),
				},
			},
		},
		Required: []string{"required_technical_skills", "required_soft_or_professional_skills", "criteria"},
	}
}

func leaveSummarySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {Type: genai.TypeString},
		},
		Required: []string{"summary"},
	}
}
