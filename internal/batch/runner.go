// Package batch classifies many messages in the background. Tasks are
// submitted to a Queue and drained by workers into a Runner.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/samthedataman/resumably/internal/events"
	"github.com/samthedataman/resumably/internal/mailbox"
	"github.com/samthedataman/resumably/internal/metrics"
	"github.com/samthedataman/resumably/internal/pipeline"
)

// Classifier is the part of the pipeline a batch needs
type Classifier interface {
	Mailbox(ctx context.Context, userID uint) (mailbox.Mailbox, error)
	ClassifyMessage(ctx context.Context, userID uint, box mailbox.Mailbox, messageID string) (*pipeline.Classification, error)
}

// Summary counts the outcome of one batch
type Summary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Total is the number of messages the batch looked at
func (s Summary) Total() int {
	return s.Processed + s.Skipped + s.Failed
}

// Runner classifies the messages of a task one after another
type Runner struct {
	classifier Classifier
	events     events.Publisher
	metrics    *metrics.Metrics
}

// NewRunner creates a runner
func NewRunner(c Classifier, pub events.Publisher, m *metrics.Metrics) *Runner {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Runner{classifier: c, events: pub, metrics: m}
}

// RunBatch classifies every id. A failing message is logged and counted and
// never stops the rest of the batch.
func (r *Runner) RunBatch(ctx context.Context, userID uint, ids []string) Summary {
	var summary Summary
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "messages": len(ids)})
	startTime := time.Now()

	box, err := r.classifier.Mailbox(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Batch aborted, mailbox unavailable")
		summary.Failed = len(ids)
		r.count(metrics.OutcomeFailed, len(ids))
		return summary
	}

	for i, id := range ids {
		if ctx.Err() != nil {
			rest := len(ids) - i
			log.WithError(ctx.Err()).Warnf("Batch cancelled with %d messages left", rest)
			summary.Failed += rest
			r.count(metrics.OutcomeFailed, rest)
			break
		}

		outcome := r.classifyOne(ctx, userID, box, id)
		switch outcome {
		case metrics.OutcomeProcessed:
			summary.Processed++
		case metrics.OutcomeSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
		r.count(outcome, 1)
	}

	log.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"duration":  time.Since(startTime).String(),
	}).Info("Batch classification completed")
	return summary
}

func (r *Runner) classifyOne(ctx context.Context, userID uint, box mailbox.Mailbox, id string) (outcome string) {
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "message_id": id})
	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", fmt.Sprint(rec)).Error("Classification panicked")
			outcome = metrics.OutcomeFailed
		}
	}()

	result, err := r.classifier.ClassifyMessage(ctx, userID, box, id)
	if err != nil {
		log.WithError(err).Error("Failed to classify message")
		return metrics.OutcomeFailed
	}
	if !result.Created {
		log.Debug("Message already processed, skipping")
		return metrics.OutcomeSkipped
	}
	return metrics.OutcomeProcessed
}

func (r *Runner) count(outcome string, n int) {
	if r.metrics == nil || n == 0 {
		return
	}
	r.metrics.BatchItems.WithLabelValues(outcome).Add(float64(n))
}

// Handle runs a queued task and announces its summary
func (r *Runner) Handle(ctx context.Context, t Task) {
	summary := r.RunBatch(ctx, t.UserID, t.MessageIDs)
	r.events.Publish(ctx, events.Event{
		Type:   events.BatchCompleted,
		UserID: t.UserID,
		Data: map[string]any{
			"task_id":   t.ID,
			"processed": summary.Processed,
			"skipped":   summary.Skipped,
			"failed":    summary.Failed,
		},
	})
}
