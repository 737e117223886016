package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/samthedataman/resumably/internal/model"
)

type draftRepo struct {
	db *gorm.DB
}

func (r *draftRepo) Create(ctx context.Context, d *model.EmailDraft) error {
	if d.Status == "" {
		d.Status = model.DraftStatusDraft
	}
	if err := r.db.WithContext(ctx).Omit("ProcessedEmail").Create(d).Error; err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}
	return nil
}

func (r *draftRepo) Get(ctx context.Context, userID, id uint) (*model.EmailDraft, error) {
	var d model.EmailDraft
	err := r.db.WithContext(ctx).Preload("ProcessedEmail").Where("id = ? AND user_id = ?", id, userID).First(&d).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (r *draftRepo) List(ctx context.Context, userID uint, limit int) ([]model.EmailDraft, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []model.EmailDraft
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return out, nil
}

func (r *draftRepo) UpdateStatus(ctx context.Context, userID, id uint, from, to model.DraftStatus) error {
	res := r.db.WithContext(ctx).Model(&model.EmailDraft{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("failed to update draft status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, userID, id); err != nil {
			return err
		}
		return ErrStaleStatus
	}
	return nil
}

func (r *draftRepo) Count(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.EmailDraft{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count drafts: %w", err)
	}
	return n, nil
}
