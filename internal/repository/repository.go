// Package repository persists the assistant's records. Every query is scoped
// by the owning user.
package repository

import (
	"context"

	"github.com/samthedataman/resumably/internal/model"
)

// ProcessedEmails stores classified messages, unique per (user, message id)
type ProcessedEmails interface {
	FindByMessageID(ctx context.Context, userID uint, messageID string) (*model.ProcessedEmail, error)
	Get(ctx context.Context, userID, id uint) (*model.ProcessedEmail, error)
	// InsertIfAbsent stores pe unless a record for the same message exists.
	// It returns the stored record and whether this call created it.
	InsertIfAbsent(ctx context.Context, pe *model.ProcessedEmail) (*model.ProcessedEmail, bool, error)
	List(ctx context.Context, userID uint, recruiterOnly bool, limit int) ([]model.ProcessedEmail, error)
	Count(ctx context.Context, userID uint) (total int64, recruiter int64, err error)
}

// SkillLedger accumulates skills learned from recruiter mail
type SkillLedger interface {
	RecordMentions(ctx context.Context, userID uint, mentions []model.SkillMention) error
	Get(ctx context.Context, userID, id uint) (*model.SkillLearning, error)
	// List returns entries by descending occurrence count. A limit <= 0 returns all.
	List(ctx context.Context, userID uint, limit int) ([]model.SkillLearning, error)
}

// Resumes stores base resumes
type Resumes interface {
	// Create makes the resume the default when it is the user's first.
	Create(ctx context.Context, r *model.Resume) error
	Get(ctx context.Context, userID, id uint) (*model.Resume, error)
	GetDefault(ctx context.Context, userID uint) (*model.Resume, error)
	List(ctx context.Context, userID uint) ([]model.Resume, error)
	Update(ctx context.Context, r *model.Resume) error
	Delete(ctx context.Context, userID, id uint) error
	SetDefault(ctx context.Context, userID, id uint) error
}

// Drafts stores composed replies
type Drafts interface {
	Create(ctx context.Context, d *model.EmailDraft) error
	Get(ctx context.Context, userID, id uint) (*model.EmailDraft, error)
	List(ctx context.Context, userID uint, limit int) ([]model.EmailDraft, error)
	// UpdateStatus moves a draft from one status to another, failing with
	// ErrStaleStatus when the stored status is not from.
	UpdateStatus(ctx context.Context, userID, id uint, from, to model.DraftStatus) error
	Count(ctx context.Context, userID uint) (int64, error)
}

// Skills stores the profile skills a user claims
type Skills interface {
	Create(ctx context.Context, s *model.Skill) error
	Get(ctx context.Context, userID, id uint) (*model.Skill, error)
	List(ctx context.Context, userID uint, category string) ([]model.Skill, error)
	Update(ctx context.Context, s *model.Skill) error
	Delete(ctx context.Context, userID, id uint) error
}

// Users stores account owners
type Users interface {
	Get(ctx context.Context, id uint) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	SaveMailboxToken(ctx context.Context, id uint, token string) error
}

// Store groups every repository behind one value
type Store struct {
	ProcessedEmails ProcessedEmails
	Ledger          SkillLedger
	Resumes         Resumes
	Drafts          Drafts
	Skills          Skills
	Users           Users
}
