package model

import "strings"

// JobType is the employment arrangement of an opportunity
type JobType string

const (
	JobTypeFullTime JobType = "full-time"
	JobTypeContract JobType = "contract"
	JobTypeRemote   JobType = "remote"
	JobTypeHybrid   JobType = "hybrid"
)

// Seniority is the level an opportunity is pitched at
type Seniority string

const (
	SeniorityJunior Seniority = "junior"
	SeniorityMid    Seniority = "mid"
	SenioritySenior Seniority = "senior"
	SeniorityLead   Seniority = "lead"
)

// JobSignal is the structured result of classifying one message.
// Field names follow the JSON the reasoning engine is asked to return.
type JobSignal struct {
	IsRecruiterEmail bool       `json:"is_recruiter_email"`
	Confidence       float64    `json:"confidence"`
	JobTitle         *string    `json:"job_title"`
	Company          *string    `json:"company"`
	KeyRequirements  []string   `json:"key_requirements"`
	KeyTechnologies  []string   `json:"key_technologies"`
	JobType          *JobType   `json:"job_type"`
	SeniorityLevel   *Seniority `json:"seniority_level"`
	SalaryRange      *string    `json:"salary_range"`
	RecruiterName    *string    `json:"recruiter_name"`
	Reason           string     `json:"reason"`
}

// FailedSignal is the canonical value produced when classification could not complete.
func FailedSignal(cause string) JobSignal {
	if strings.TrimSpace(cause) == "" {
		cause = "classification failed"
	}
	return JobSignal{
		IsRecruiterEmail: false,
		Confidence:       0,
		KeyRequirements:  []string{},
		KeyTechnologies:  []string{},
		Reason:           cause,
	}
}

// Normalize clamps confidence, drops enum values outside the known sets,
// blanks empty or "null" optional strings and replaces nil lists with empty ones.
func (s JobSignal) Normalize() JobSignal {
	switch {
	case s.Confidence < 0:
		s.Confidence = 0
	case s.Confidence > 1:
		s.Confidence = 1
	}

	s.JobTitle = nonEmpty(s.JobTitle)
	s.Company = nonEmpty(s.Company)
	s.SalaryRange = nonEmpty(s.SalaryRange)
	s.RecruiterName = nonEmpty(s.RecruiterName)

	if s.JobType != nil {
		jt := JobType(strings.ToLower(strings.TrimSpace(string(*s.JobType))))
		switch jt {
		case JobTypeFullTime, JobTypeContract, JobTypeRemote, JobTypeHybrid:
			s.JobType = &jt
		default:
			s.JobType = nil
		}
	}

	if s.SeniorityLevel != nil {
		lvl := Seniority(strings.ToLower(strings.TrimSpace(string(*s.SeniorityLevel))))
		switch lvl {
		case SeniorityJunior, SeniorityMid, SenioritySenior, SeniorityLead:
			s.SeniorityLevel = &lvl
		default:
			s.SeniorityLevel = nil
		}
	}

	s.KeyRequirements = compact(s.KeyRequirements)
	s.KeyTechnologies = compact(s.KeyTechnologies)
	return s
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := strings.TrimSpace(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// StringValue dereferences an optional string
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
