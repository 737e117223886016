package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/samthedataman/resumably/internal/model"
)

type resumeRepo struct {
	db *gorm.DB
}

// Create locks the user's resumes so that exactly one of two concurrent
// first resumes becomes the default.
func (r *resumeRepo) Create(ctx context.Context, resume *model.Resume) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&model.Resume{}).Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", resume.UserID).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to lock resumes: %w", err)
		}

		if len(ids) == 0 {
			resume.IsDefault = true
		} else if resume.IsDefault {
			if err := clearDefault(tx, resume.UserID); err != nil {
				return err
			}
		}

		if err := tx.Create(resume).Error; err != nil {
			return fmt.Errorf("failed to create resume: %w", err)
		}
		return nil
	})
}

func (r *resumeRepo) Get(ctx context.Context, userID, id uint) (*model.Resume, error) {
	var resume model.Resume
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&resume).Error; err != nil {
		return nil, notFound(err)
	}
	return &resume, nil
}

func (r *resumeRepo) GetDefault(ctx context.Context, userID uint) (*model.Resume, error) {
	var resume model.Resume
	if err := r.db.WithContext(ctx).Where("user_id = ? AND is_default = ?", userID, true).First(&resume).Error; err != nil {
		return nil, notFound(err)
	}
	return &resume, nil
}

func (r *resumeRepo) List(ctx context.Context, userID uint) ([]model.Resume, error) {
	var out []model.Resume
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	return out, nil
}

// Update saves content fields. The default flag only changes through SetDefault.
func (r *resumeRepo) Update(ctx context.Context, resume *model.Resume) error {
	res := r.db.WithContext(ctx).Model(&model.Resume{}).
		Where("id = ? AND user_id = ?", resume.ID, resume.UserID).
		Select("name", "personal_info", "summary", "skills", "experience", "education", "projects", "certifications").
		Updates(resume)
	if res.Error != nil {
		return fmt.Errorf("failed to update resume: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *resumeRepo) Delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Resume{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete resume: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDefault clears every default of the user and sets the target in one
// transaction, with the user's rows locked.
func (r *resumeRepo) SetDefault(ctx context.Context, userID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&model.Resume{}).Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to lock resumes: %w", err)
		}
		if !containsID(ids, id) {
			return ErrNotFound
		}

		if err := clearDefault(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(&model.Resume{}).Where("id = ? AND user_id = ?", id, userID).
			Update("is_default", true).Error; err != nil {
			return fmt.Errorf("failed to set default resume: %w", err)
		}
		return nil
	})
}

func clearDefault(tx *gorm.DB, userID uint) error {
	if err := tx.Model(&model.Resume{}).Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error; err != nil {
		return fmt.Errorf("failed to clear default resume: %w", err)
	}
	return nil
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
