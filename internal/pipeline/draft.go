package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/samthedataman/resumably/internal/assistant"
	"github.com/samthedataman/resumably/internal/document"
	"github.com/samthedataman/resumably/internal/events"
	"github.com/samthedataman/resumably/internal/mailbox"
	"github.com/samthedataman/resumably/internal/model"
	"github.com/samthedataman/resumably/internal/render"
	"github.com/samthedataman/resumably/internal/repository"
)

// learnedContextSize is how many ledger entries feed the tailoring prompt
const learnedContextSize = 15

// DraftRequest asks for a reply to a processed email
type DraftRequest struct {
	ProcessedEmailID uint  `json:"processed_email_id" binding:"required"`
	ResumeID         *uint `json:"resume_id"`
}

// DraftResult describes a created draft
type DraftResult struct {
	DraftID         uint     `json:"draft_id"`
	ExternalDraftID string   `json:"external_draft_id"`
	ReplyText       string   `json:"reply_text"`
	MatchedSkills   []string `json:"matched_skills"`
}

// CreateDraft tailors a resume, composes a reply, renders the PDF and stores
// the reply as a mailbox draft. Nothing is persisted unless every step succeeds.
func (p *Pipeline) CreateDraft(ctx context.Context, userID uint, req DraftRequest) (*DraftResult, error) {
	started := p.now()
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "processed_email_id": req.ProcessedEmailID})

	processed, err := p.store.ProcessedEmails.Get(ctx, userID, req.ProcessedEmailID)
	if err != nil {
		return nil, fmt.Errorf("processed email %d: %w", req.ProcessedEmailID, err)
	}
	transition(log, StateClassified)

	resume, err := p.resolveResume(ctx, userID, req.ResumeID)
	if err != nil {
		return nil, err
	}

	box, err := p.mailboxes.For(ctx, userID)
	if err != nil {
		return nil, err
	}

	signal := processed.Signal()
	base, err := document.FromResume(resume)
	if err != nil {
		return nil, err
	}

	tailored := p.tailor.Tailor(ctx, base, signal, p.skillsContext(ctx, userID))
	transition(log, StateTailored)

	matched := matchSkills(signal.KeyTechnologies, tailored.SkillNames())
	reply, err := p.composer.Compose(ctx,
		assistant.Original{From: processed.Sender, Subject: processed.Subject, Body: processed.Body},
		signal,
		assistant.Candidate{
			Name:  base.PersonalString("name"),
			Title: base.PersonalString("title"),
			Email: base.PersonalString("email"),
		},
		matched,
	)
	if err != nil {
		return nil, err
	}
	transition(log, StateComposed)

	pdf, err := p.renderer.RenderResumePDF(ctx, tailored)
	if err != nil {
		return nil, err
	}
	transition(log, StateRendered)

	subject := "Re: " + processed.Subject
	externalID, err := box.CreateDraft(ctx, mailbox.Draft{
		To:       model.SenderAddress(processed.Sender),
		Subject:  subject,
		Body:     reply,
		ThreadID: processed.ThreadID,
		Attachment: &mailbox.Attachment{
			Filename:    render.AttachmentName(base),
			ContentType: "application/pdf",
			Data:        pdf,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mailbox draft: %w", err)
	}

	draft := &model.EmailDraft{
		UserID:           userID,
		ProcessedEmailID: processed.ID,
		Subject:          subject,
		Body:             reply,
		TailoredResume:   datatypes.JSONMap(tailored),
		MatchedSkills:    datatypes.NewJSONSlice(matched),
		Status:           model.DraftStatusDraft,
		ExternalDraftID:  externalID,
	}
	if err := p.store.Drafts.Create(ctx, draft); err != nil {
		if delErr := box.DeleteDraft(ctx, externalID); delErr != nil {
			log.WithError(delErr).Warn("Failed to remove orphaned mailbox draft")
		}
		return nil, fmt.Errorf("failed to store draft: %w", err)
	}
	transition(log.WithField("draft_id", draft.ID), StateDrafted)

	p.metrics.Drafts.WithLabelValues("created").Inc()
	p.metrics.DraftDuration.Observe(p.now().Sub(started).Seconds())
	p.events.Publish(ctx, events.Event{
		Type:   events.DraftCreated,
		UserID: userID,
		Data: map[string]any{
			"draft_id":           draft.ID,
			"processed_email_id": processed.ID,
			"external_draft_id":  externalID,
		},
	})

	return &DraftResult{
		DraftID:         draft.ID,
		ExternalDraftID: externalID,
		ReplyText:       reply,
		MatchedSkills:   matched,
	}, nil
}

func (p *Pipeline) resolveResume(ctx context.Context, userID uint, resumeID *uint) (*model.Resume, error) {
	if resumeID != nil {
		resume, err := p.store.Resumes.Get(ctx, userID, *resumeID)
		if err != nil {
			return nil, fmt.Errorf("resume %d: %w", *resumeID, err)
		}
		return resume, nil
	}
	resume, err := p.store.Resumes.GetDefault(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoResume
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load default resume: %w", err)
	}
	return resume, nil
}

// skillsContext summarises profile skills and recruiter demand for the
// tailoring prompt. It is nil when the user has neither.
func (p *Pipeline) skillsContext(ctx context.Context, userID uint) document.Document {
	out := document.Document{}

	profile, err := p.store.Skills.List(ctx, userID, "")
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to load profile skills")
	}
	if len(profile) > 0 {
		items := make([]any, 0, len(profile))
		for _, s := range profile {
			item := map[string]any{"name": s.Name, "category": s.Category}
			if s.Proficiency != "" {
				item["proficiency"] = s.Proficiency
			}
			if s.YearsExperience != nil {
				item["years_experience"] = *s.YearsExperience
			}
			if s.ProofPoints != "" {
				item["proof_points"] = s.ProofPoints
			}
			items = append(items, item)
		}
		out["profile_skills"] = items
	}

	learned, err := p.store.Ledger.List(ctx, userID, learnedContextSize)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to load learned skills")
	}
	if len(learned) > 0 {
		items := make([]any, 0, len(learned))
		for _, l := range learned {
			items = append(items, map[string]any{"name": l.SkillName, "category": l.Category, "count": l.OccurrenceCount})
		}
		out["recruiter_demand"] = items
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// matchSkills keeps the technologies the resume already lists. When none
// overlap every technology is returned.
func matchSkills(technologies, resumeSkills []string) []string {
	have := make(map[string]struct{}, len(resumeSkills))
	for _, s := range resumeSkills {
		have[s] = struct{}{}
	}
	matched := []string{}
	for _, t := range technologies {
		if _, ok := have[model.NormalizeSkillName(t)]; ok {
			matched = append(matched, t)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	return append([]string{}, technologies...)
}

// SendDraft sends a stored draft through the mailbox and marks it sent
func (p *Pipeline) SendDraft(ctx context.Context, userID, draftID uint) (*model.EmailDraft, error) {
	draft, err := p.draftFor(ctx, userID, draftID, model.DraftStatusSent)
	if err != nil {
		return nil, err
	}

	box, err := p.mailboxes.For(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := box.SendDraft(ctx, draft.ExternalDraftID); err != nil {
		return nil, fmt.Errorf("failed to send draft: %w", err)
	}

	if err := p.updateStatus(ctx, userID, draft, model.DraftStatusSent); err != nil {
		return nil, err
	}
	p.metrics.Drafts.WithLabelValues("sent").Inc()
	p.events.Publish(ctx, events.Event{Type: events.DraftSent, UserID: userID, Data: map[string]any{"draft_id": draft.ID}})
	return draft, nil
}

// ArchiveDraft marks a draft archived and removes it from the mailbox. The
// mailbox removal is best effort.
func (p *Pipeline) ArchiveDraft(ctx context.Context, userID, draftID uint) (*model.EmailDraft, error) {
	draft, err := p.draftFor(ctx, userID, draftID, model.DraftStatusArchived)
	if err != nil {
		return nil, err
	}
	if err := p.updateStatus(ctx, userID, draft, model.DraftStatusArchived); err != nil {
		return nil, err
	}

	if draft.ExternalDraftID != "" {
		log := logrus.WithFields(logrus.Fields{"user_id": userID, "draft_id": draft.ID})
		if box, err := p.mailboxes.For(ctx, userID); err != nil {
			log.WithError(err).Warn("Mailbox unavailable, external draft left in place")
		} else if err := box.DeleteDraft(ctx, draft.ExternalDraftID); err != nil {
			log.WithError(err).Warn("Failed to delete external draft")
		}
	}

	p.metrics.Drafts.WithLabelValues("archived").Inc()
	p.events.Publish(ctx, events.Event{Type: events.DraftArchived, UserID: userID, Data: map[string]any{"draft_id": draft.ID}})
	return draft, nil
}

func (p *Pipeline) draftFor(ctx context.Context, userID, draftID uint, to model.DraftStatus) (*model.EmailDraft, error) {
	draft, err := p.store.Drafts.Get(ctx, userID, draftID)
	if err != nil {
		return nil, fmt.Errorf("draft %d: %w", draftID, err)
	}
	if !model.CanTransition(draft.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, draft.Status, to)
	}
	return draft, nil
}

func (p *Pipeline) updateStatus(ctx context.Context, userID uint, draft *model.EmailDraft, to model.DraftStatus) error {
	err := p.store.Drafts.UpdateStatus(ctx, userID, draft.ID, draft.Status, to)
	if errors.Is(err, repository.ErrStaleStatus) {
		return fmt.Errorf("%w: draft %d changed concurrently", ErrInvalidTransition, draft.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update draft status: %w", err)
	}
	draft.Status = to
	return nil
}
