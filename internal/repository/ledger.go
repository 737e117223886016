package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/samthedataman/resumably/internal/ledger"
	"github.com/samthedataman/resumably/internal/model"
)

type ledgerRepo struct {
	db *gorm.DB
}

// ledgerAttempts bounds how often a transaction chosen as a deadlock or
// serialization victim is replayed.
const ledgerAttempts = 4

// RecordMentions applies all mentions in one transaction. Each ledger row is
// locked before it is read so concurrent calls for the same skill serialise.
// Two first mentions of the same skill can still deadlock on the gap lock;
// the losing transaction is rolled back and replayed.
func (r *ledgerRepo) RecordMentions(ctx context.Context, userID uint, mentions []model.SkillMention) error {
	ordered := ledger.Ordered(mentions)
	if len(ordered) == 0 {
		return nil
	}

	var err error
	for attempt := 1; attempt <= ledgerAttempts; attempt++ {
		err = r.recordOnce(ctx, userID, ordered, time.Now())
		if err == nil || !isRetryableTxError(err) {
			return err
		}
		if attempt == ledgerAttempts {
			break
		}
		logrus.WithFields(logrus.Fields{"user_id": userID, "attempt": attempt}).
			Warnf("Ledger transaction aborted by the database, retrying: %v", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*attempt) * 10 * time.Millisecond):
		}
	}
	return fmt.Errorf("ledger update failed after %d attempts: %w", ledgerAttempts, err)
}

// isRetryableTxError reports deadlocks and serialization failures
func isRetryableTxError(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1213 || myErr.Number == 1205
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001"
	}
	return false
}

func (r *ledgerRepo) recordOnce(ctx context.Context, userID uint, ordered []model.SkillMention, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range ordered {
			name := model.NormalizeSkillName(m.Name)

			existing, err := lockEntry(tx, userID, name)
			if err != nil {
				return err
			}

			if existing == nil {
				fresh := ledger.Apply(nil, userID, m, now)
				res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh)
				if res.Error != nil {
					return fmt.Errorf("failed to insert skill %q: %w", name, res.Error)
				}
				if res.RowsAffected == 1 {
					continue
				}
				// a concurrent call inserted the row first
				existing, err = lockEntry(tx, userID, name)
				if err != nil {
					return err
				}
				if existing == nil {
					return fmt.Errorf("skill %q vanished after conflicting insert", name)
				}
			}

			merged := ledger.Apply(existing, userID, m, now)
			if err := tx.Model(&model.SkillLearning{}).Where("id = ?", existing.ID).Updates(map[string]any{
				"category":         merged.Category,
				"occurrence_count": merged.OccurrenceCount,
				"contexts":         merged.Contexts,
				"last_seen":        merged.LastSeen,
			}).Error; err != nil {
				return fmt.Errorf("failed to update skill %q: %w", name, err)
			}
		}
		return nil
	})
}

func lockEntry(tx *gorm.DB, userID uint, name string) (*model.SkillLearning, error) {
	var entry model.SkillLearning
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND skill_name = ?", userID, name).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock skill %q: %w", name, err)
	}
	return &entry, nil
}

func (r *ledgerRepo) Get(ctx context.Context, userID, id uint) (*model.SkillLearning, error) {
	var entry model.SkillLearning
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&entry).Error; err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

func (r *ledgerRepo) List(ctx context.Context, userID uint, limit int) ([]model.SkillLearning, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("occurrence_count DESC").Order("skill_name")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []model.SkillLearning
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list learned skills: %w", err)
	}
	return out, nil
}
