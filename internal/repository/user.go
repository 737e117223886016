package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/samthedataman/resumably/internal/model"
)

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) Get(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepo) SaveMailboxToken(ctx context.Context, id uint, token string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]any{
		"mailbox_token":     token,
		"mailbox_connected": token != "",
	})
	if res.Error != nil {
		return fmt.Errorf("failed to save mailbox token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
