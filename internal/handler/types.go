package handler

import (
	"time"

	"github.com/samthedataman/resumably/internal/model"
)

// BatchClassifyRequest lists the messages to classify in the background
type BatchClassifyRequest struct {
	MessageIDs []string `json:"message_ids" binding:"required,min=1,dive,required"`
}

// ClassifyResponse is returned after classifying one message
type ClassifyResponse struct {
	ProcessedEmailID uint            `json:"processed_email_id"`
	JobDetails       model.JobSignal `json:"job_details"`
}

// MessagePreview is one message of a mailbox scan
type MessagePreview struct {
	MessageID string    `json:"message_id"`
	ThreadID  string    `json:"thread_id"`
	Subject   string    `json:"subject"`
	Sender    string    `json:"sender"`
	Snippet   string    `json:"snippet"`
	Date      time.Time `json:"date"`
}

// ScanResponse is one page of a mailbox scan
type ScanResponse struct {
	Emails        []MessagePreview `json:"emails"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

// SkillCount is a learned skill with its mention count
type SkillCount struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// DashboardStats summarises a user's activity
type DashboardStats struct {
	TotalEmailsProcessed int64        `json:"total_emails_processed"`
	RecruiterEmailsFound int64        `json:"recruiter_emails_found"`
	DraftsCreated        int64        `json:"drafts_created"`
	SkillsLearned        int          `json:"skills_learned"`
	TopRequestedSkills   []SkillCount `json:"top_requested_skills"`
}

// ResumeRequest creates a resume
type ResumeRequest struct {
	Name           string           `json:"name" binding:"required"`
	IsDefault      bool             `json:"is_default"`
	PersonalInfo   map[string]any   `json:"personal_info"`
	Summary        string           `json:"summary"`
	Skills         map[string]any   `json:"skills"`
	Experience     []map[string]any `json:"experience"`
	Education      []map[string]any `json:"education"`
	Projects       []map[string]any `json:"projects"`
	Certifications []string         `json:"certifications"`
}

// ResumeUpdateRequest changes the fields that are present
type ResumeUpdateRequest struct {
	Name           *string           `json:"name"`
	PersonalInfo   map[string]any    `json:"personal_info"`
	Summary        *string           `json:"summary"`
	Skills         map[string]any    `json:"skills"`
	Experience     *[]map[string]any `json:"experience"`
	Education      *[]map[string]any `json:"education"`
	Projects       *[]map[string]any `json:"projects"`
	Certifications *[]string         `json:"certifications"`
}

// SkillRequest creates or updates a profile skill
type SkillRequest struct {
	Name            string   `json:"name" binding:"required"`
	Category        string   `json:"category"`
	Proficiency     string   `json:"proficiency" binding:"omitempty,oneof=beginner intermediate advanced expert"`
	YearsExperience *float64 `json:"years_experience" binding:"omitempty,gte=0"`
	ProofPoints     string   `json:"proof_points"`
	Keywords        []string `json:"keywords"`
}

// BulkImportResponse reports a bulk skill import
type BulkImportResponse struct {
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Message  string `json:"message"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Scheduler map[string]string `json:"scheduler,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
