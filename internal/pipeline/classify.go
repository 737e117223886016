package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/samthedataman/resumably/internal/events"
	"github.com/samthedataman/resumably/internal/mailbox"
	"github.com/samthedataman/resumably/internal/model"
	"github.com/samthedataman/resumably/internal/repository"
)

// Classification is the outcome of classifying one message
type Classification struct {
	Email  *model.ProcessedEmail
	Signal model.JobSignal
	// Created is false when the message had already been classified
	Created bool
}

// Classify classifies a mailbox message once. A message already processed
// for the user returns the stored record without calling the classifier.
func (p *Pipeline) Classify(ctx context.Context, userID uint, messageID string) (*model.ProcessedEmail, model.JobSignal, error) {
	existing, err := p.store.ProcessedEmails.FindByMessageID(ctx, userID, messageID)
	if err == nil {
		return existing, existing.Signal(), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, model.JobSignal{}, fmt.Errorf("failed to look up processed email: %w", err)
	}

	box, err := p.mailboxes.For(ctx, userID)
	if err != nil {
		return nil, model.JobSignal{}, err
	}
	result, err := p.ClassifyMessage(ctx, userID, box, messageID)
	if err != nil {
		return nil, model.JobSignal{}, err
	}
	return result.Email, result.Signal, nil
}

// ClassifyMessage classifies one message from an already resolved mailbox
func (p *Pipeline) ClassifyMessage(ctx context.Context, userID uint, box mailbox.Mailbox, messageID string) (*Classification, error) {
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "message_id": messageID})

	existing, err := p.store.ProcessedEmails.FindByMessageID(ctx, userID, messageID)
	if err == nil {
		return &Classification{Email: existing, Signal: existing.Signal()}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up processed email: %w", err)
	}
	transition(log, StateUnclassified)

	msg, err := box.FetchMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	signal := p.classifier.Classify(ctx, *msg)
	transition(log, StateClassified)

	stored, created, err := p.store.ProcessedEmails.InsertIfAbsent(ctx, model.NewProcessedEmail(userID, *msg, signal, p.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to store processed email: %w", err)
	}
	if !created {
		log.Info("Message was classified concurrently, keeping the stored record")
		return &Classification{Email: stored, Signal: stored.Signal()}, nil
	}

	p.metrics.ObserveClassification(signal.IsRecruiterEmail)
	p.events.Publish(ctx, events.Event{
		Type:   events.EmailClassified,
		UserID: userID,
		Data: map[string]any{
			"processed_email_id": stored.ID,
			"is_recruiter_email": signal.IsRecruiterEmail,
		},
	})
	log.WithFields(logrus.Fields{
		"recruiter":  signal.IsRecruiterEmail,
		"confidence": signal.Confidence,
	}).Info("Classified message")

	if signal.IsRecruiterEmail {
		p.LearnSkills(ctx, userID, *msg)
		transition(log, StateSkillsLearned)
	}
	return &Classification{Email: stored, Signal: signal, Created: true}, nil
}

// LearnSkills records the skills a recruiter message asks for. Failures are
// logged and never reach the caller.
func (p *Pipeline) LearnSkills(ctx context.Context, userID uint, msg model.Message) {
	mentions := p.extractor.Extract(ctx, msg)
	if len(mentions) == 0 {
		return
	}
	if err := p.store.Ledger.RecordMentions(ctx, userID, mentions); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"message_id": msg.ID,
		}).Warn("Failed to record skill mentions")
		return
	}
	p.metrics.SkillMentions.Add(float64(len(mentions)))
}
