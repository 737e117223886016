package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Skill categories understood by extraction and the profile
const (
	CategoryDataEngineering = "data_engineering"
	CategoryCloud           = "cloud"
	CategoryAIML            = "ai_ml"
	CategoryFrontend        = "frontend"
	CategoryBackend         = "backend"
	CategoryDevOps          = "devops"
	CategoryAnalytics       = "analytics"
	CategoryOther           = "other"
)

// SkillCategories lists every known category in display order
var SkillCategories = []string{
	CategoryDataEngineering,
	CategoryCloud,
	CategoryAIML,
	CategoryFrontend,
	CategoryBackend,
	CategoryDevOps,
	CategoryAnalytics,
	CategoryOther,
}

// NormalizeCategory maps unknown categories to "other"
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	for _, known := range SkillCategories {
		if c == known {
			return c
		}
	}
	return CategoryOther
}

// NormalizeSkillName is the ledger key form of a skill name
func NormalizeSkillName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SkillMention is one skill observed in one message
type SkillMention struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Context  string `json:"context"`
}

// SkillLearning is the per-user ledger entry for a skill seen in recruiter mail
type SkillLearning struct {
	ID              uint                        `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID          uint                        `json:"user_id" gorm:"not null;uniqueIndex:idx_learning_user_skill"`
	SkillName       string                      `json:"skill_name" gorm:"type:varchar(255);not null;uniqueIndex:idx_learning_user_skill"`
	Category        string                      `json:"category" gorm:"type:varchar(50)"`
	OccurrenceCount int                         `json:"occurrence_count" gorm:"not null;default:1"`
	Contexts        datatypes.JSONSlice[string] `json:"contexts"`
	LastSeen        time.Time                   `json:"last_seen"`
	CreatedAt       time.Time                   `json:"created_at"`
}

// TableName specifies the table name for SkillLearning
func (SkillLearning) TableName() string {
	return "skill_learnings"
}
