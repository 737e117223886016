package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/samthedataman/resumably/internal/model"
)

// NewGormStore builds every repository on one gorm connection
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		ProcessedEmails: &processedEmailRepo{db: db},
		Ledger:          &ledgerRepo{db: db},
		Resumes:         &resumeRepo{db: db},
		Drafts:          &draftRepo{db: db},
		Skills:          &skillRepo{db: db},
		Users:           &userRepo{db: db},
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("database error: %w", err)
}

type processedEmailRepo struct {
	db *gorm.DB
}

func (r *processedEmailRepo) FindByMessageID(ctx context.Context, userID uint, messageID string) (*model.ProcessedEmail, error) {
	var pe model.ProcessedEmail
	err := r.db.WithContext(ctx).Where("user_id = ? AND message_id = ?", userID, messageID).First(&pe).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &pe, nil
}

func (r *processedEmailRepo) Get(ctx context.Context, userID, id uint) (*model.ProcessedEmail, error) {
	var pe model.ProcessedEmail
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&pe).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &pe, nil
}

func (r *processedEmailRepo) InsertIfAbsent(ctx context.Context, pe *model.ProcessedEmail) (*model.ProcessedEmail, bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(pe)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to mark email as processed: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return pe, true, nil
	}

	stored, err := r.FindByMessageID(ctx, pe.UserID, pe.MessageID)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (r *processedEmailRepo) List(ctx context.Context, userID uint, recruiterOnly bool, limit int) ([]model.ProcessedEmail, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if recruiterOnly {
		q = q.Where("is_recruiter_email = ?", true)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []model.ProcessedEmail
	if err := q.Order("processed_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list processed emails: %w", err)
	}
	return out, nil
}

func (r *processedEmailRepo) Count(ctx context.Context, userID uint) (int64, int64, error) {
	var total, recruiter int64
	if err := r.db.WithContext(ctx).Model(&model.ProcessedEmail{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count processed emails: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&model.ProcessedEmail{}).
		Where("user_id = ? AND is_recruiter_email = ?", userID, true).Count(&recruiter).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count recruiter emails: %w", err)
	}
	return total, recruiter, nil
}
