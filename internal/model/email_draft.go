package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// DraftStatus is the lifecycle state of a stored reply draft
type DraftStatus string

const (
	DraftStatusDraft    DraftStatus = "draft"
	DraftStatusSent     DraftStatus = "sent"
	DraftStatusArchived DraftStatus = "archived"
)

// validDraftTransitions lists every allowed (from → to) pair.
// sent and archived are terminal.
var validDraftTransitions = map[DraftStatus][]DraftStatus{
	DraftStatusDraft: {DraftStatusSent, DraftStatusArchived},
}

// ParseDraftStatus converts a raw string to a DraftStatus
func ParseDraftStatus(s string) (DraftStatus, error) {
	st := DraftStatus(s)
	switch st {
	case DraftStatusDraft, DraftStatusSent, DraftStatusArchived:
		return st, nil
	}
	return "", fmt.Errorf("unknown draft status %q", s)
}

// CanTransition reports whether a draft may move from one status to another
func CanTransition(from, to DraftStatus) bool {
	for _, s := range validDraftTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// EmailDraft is a composed reply plus the tailored resume it was built from
type EmailDraft struct {
	ID               uint                        `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID           uint                        `json:"user_id" gorm:"not null;index"`
	ProcessedEmailID uint                        `json:"processed_email_id" gorm:"not null;index"`
	Subject          string                      `json:"subject" gorm:"type:varchar(1000)"`
	Body             string                      `json:"body" gorm:"type:text"`
	TailoredResume   datatypes.JSONMap           `json:"tailored_resume"`
	MatchedSkills    datatypes.JSONSlice[string] `json:"matched_skills"`
	Status           DraftStatus                 `json:"status" gorm:"type:varchar(20);not null;default:draft"`
	ExternalDraftID  string                      `json:"external_draft_id" gorm:"type:varchar(255)"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`

	ProcessedEmail *ProcessedEmail `json:"processed_email,omitempty" gorm:"foreignKey:ProcessedEmailID"`
}

// TableName specifies the table name for EmailDraft
func (EmailDraft) TableName() string {
	return "email_drafts"
}
