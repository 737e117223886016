package model

import (
	"time"

	"gorm.io/datatypes"
)

// SkillSource records how a profile skill was added
type SkillSource string

const (
	SkillSourceManual  SkillSource = "manual"
	SkillSourceImport  SkillSource = "import"
	SkillSourceLearned SkillSource = "learned"
)

// Proficiency levels accepted on profile skills
var Proficiencies = []string{"beginner", "intermediate", "advanced", "expert"}

// Skill is a skill the user claims on their profile
type Skill struct {
	ID              uint                        `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID          uint                        `json:"user_id" gorm:"not null;uniqueIndex:idx_skill_user_name"`
	Name            string                      `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:idx_skill_user_name"`
	Category        string                      `json:"category" gorm:"type:varchar(50)"`
	Proficiency     string                      `json:"proficiency" gorm:"type:varchar(50)"`
	YearsExperience *float64                    `json:"years_experience"`
	ProofPoints     string                      `json:"proof_points" gorm:"type:text"`
	Keywords        datatypes.JSONSlice[string] `json:"keywords"`
	Source          SkillSource                 `json:"source" gorm:"type:varchar(20);default:manual"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for Skill
func (Skill) TableName() string {
	return "skills"
}

// User is the owner of every other record
type User struct {
	ID               uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Email            string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	FullName         string    `json:"full_name" gorm:"type:varchar(255)"`
	MailboxToken     string    `json:"-" gorm:"type:text"`
	MailboxConnected bool      `json:"mailbox_connected" gorm:"default:false"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
