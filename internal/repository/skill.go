package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/samthedataman/resumably/internal/model"
)

type skillRepo struct {
	db *gorm.DB
}

func (r *skillRepo) Create(ctx context.Context, s *model.Skill) error {
	s.Name = model.NormalizeSkillName(s.Name)
	if s.Source == "" {
		s.Source = model.SkillSourceManual
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Skill{}).Where("user_id = ? AND name = ?", s.UserID, s.Name).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to check skill: %w", err)
		}
		if n > 0 {
			return ErrDuplicate
		}
		if err := tx.Create(s).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicate
			}
			return fmt.Errorf("failed to create skill: %w", err)
		}
		return nil
	})
}

func (r *skillRepo) Get(ctx context.Context, userID, id uint) (*model.Skill, error) {
	var s model.Skill
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *skillRepo) List(ctx context.Context, userID uint, category string) ([]model.Skill, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var out []model.Skill
	if err := q.Order("category").Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return out, nil
}

func (r *skillRepo) Update(ctx context.Context, s *model.Skill) error {
	res := r.db.WithContext(ctx).Model(&model.Skill{}).
		Where("id = ? AND user_id = ?", s.ID, s.UserID).
		Select("category", "proficiency", "years_experience", "proof_points", "keywords").
		Updates(s)
	if res.Error != nil {
		return fmt.Errorf("failed to update skill: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *skillRepo) Delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Skill{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete skill: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
