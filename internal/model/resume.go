package model

import (
	"time"

	"gorm.io/datatypes"
)

// Resume is a stored base resume. At most one per user has IsDefault set.
type Resume struct {
	ID             uint                                `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID         uint                                `json:"user_id" gorm:"not null;index"`
	Name           string                              `json:"name" gorm:"type:varchar(255);not null"`
	IsDefault      bool                                `json:"is_default" gorm:"default:false"`
	PersonalInfo   datatypes.JSONMap                   `json:"personal_info"`
	Summary        string                              `json:"summary" gorm:"type:text"`
	Skills         datatypes.JSONMap                   `json:"skills"`
	Experience     datatypes.JSONSlice[map[string]any] `json:"experience"`
	Education      datatypes.JSONSlice[map[string]any] `json:"education"`
	Projects       datatypes.JSONSlice[map[string]any] `json:"projects"`
	Certifications datatypes.JSONSlice[string]         `json:"certifications"`
	CreatedAt      time.Time                           `json:"created_at"`
	UpdatedAt      time.Time                           `json:"updated_at"`
}

// TableName specifies the table name for Resume
func (Resume) TableName() string {
	return "resumes"
}
