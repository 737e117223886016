package model

import (
	"time"

	"gorm.io/datatypes"
)

// MaxStoredBodyRunes bounds the message body kept on a processed email
const MaxStoredBodyRunes = 5000

// ProcessedEmail records one classified message so it is never classified twice
type ProcessedEmail struct {
	ID               uint                       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID           uint                       `json:"user_id" gorm:"not null;uniqueIndex:idx_processed_user_message"`
	MessageID        string                     `json:"message_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_processed_user_message"`
	ThreadID         string                     `json:"thread_id" gorm:"type:varchar(255)"`
	Subject          string                     `json:"subject" gorm:"type:varchar(1000)"`
	Sender           string                     `json:"sender" gorm:"type:varchar(500)"`
	Body             string                     `json:"body" gorm:"type:text"`
	IsRecruiterEmail bool                       `json:"is_recruiter_email" gorm:"index"`
	Confidence       float64                    `json:"confidence"`
	JobTitle         *string                    `json:"job_title" gorm:"type:varchar(255)"`
	Company          *string                    `json:"company" gorm:"type:varchar(255)"`
	KeyRequirements  datatypes.JSONSlice[string] `json:"key_requirements"`
	KeyTechnologies  datatypes.JSONSlice[string] `json:"key_technologies"`
	JobType          *JobType                   `json:"job_type" gorm:"type:varchar(50)"`
	SeniorityLevel   *Seniority                 `json:"seniority_level" gorm:"type:varchar(50)"`
	SalaryRange      *string                    `json:"salary_range" gorm:"type:varchar(255)"`
	RecruiterName    *string                    `json:"recruiter_name" gorm:"type:varchar(255)"`
	Reason           string                     `json:"reason" gorm:"type:text"`
	ProcessedAt      time.Time                  `json:"processed_at"`
}

// TableName specifies the table name for ProcessedEmail
func (ProcessedEmail) TableName() string {
	return "processed_emails"
}

// NewProcessedEmail builds the record persisted for a classified message
func NewProcessedEmail(userID uint, msg Message, signal JobSignal, now time.Time) *ProcessedEmail {
	return &ProcessedEmail{
		UserID:           userID,
		MessageID:        msg.ID,
		ThreadID:         msg.ThreadID,
		Subject:          msg.Subject,
		Sender:           msg.From,
		Body:             Truncate(msg.Body, MaxStoredBodyRunes),
		IsRecruiterEmail: signal.IsRecruiterEmail,
		Confidence:       signal.Confidence,
		JobTitle:         signal.JobTitle,
		Company:          signal.Company,
		KeyRequirements:  datatypes.NewJSONSlice(nonNil(signal.KeyRequirements)),
		KeyTechnologies:  datatypes.NewJSONSlice(nonNil(signal.KeyTechnologies)),
		JobType:          signal.JobType,
		SeniorityLevel:   signal.SeniorityLevel,
		SalaryRange:      signal.SalaryRange,
		RecruiterName:    signal.RecruiterName,
		Reason:           signal.Reason,
		ProcessedAt:      now,
	}
}

// Signal rebuilds the classification stored on the record
func (p *ProcessedEmail) Signal() JobSignal {
	return JobSignal{
		IsRecruiterEmail: p.IsRecruiterEmail,
		Confidence:       p.Confidence,
		JobTitle:         p.JobTitle,
		Company:          p.Company,
		KeyRequirements:  nonNil(p.KeyRequirements),
		KeyTechnologies:  nonNil(p.KeyTechnologies),
		JobType:          p.JobType,
		SeniorityLevel:   p.SeniorityLevel,
		SalaryRange:      p.SalaryRange,
		RecruiterName:    p.RecruiterName,
		Reason:           p.Reason,
	}
}

// Message returns the stored message content
func (p *ProcessedEmail) Message() Message {
	return Message{
		ID:       p.MessageID,
		ThreadID: p.ThreadID,
		Subject:  p.Subject,
		From:     p.Sender,
		Body:     p.Body,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return append([]string(nil), items...)
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if n < 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
