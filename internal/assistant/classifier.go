// Package assistant turns reasoning-engine calls into typed results:
// job signals, skill mentions, tailored resumes and reply text.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/samthedataman/resumably/internal/llm"
	"github.com/samthedataman/resumably/internal/model"
)

// Classifier decides whether a message is recruiter outreach
type Classifier struct {
	llm   llm.Completer
	model string
}

// NewClassifier creates a classifier on the fast model tier
func NewClassifier(c llm.Completer, models llm.Models) *Classifier {
	return &Classifier{llm: c, model: models.Fast}
}

// Classify never fails: any engine or parse problem yields a failure signal
// whose Reason names the cause.
func (c *Classifier) Classify(ctx context.Context, msg model.Message) model.JobSignal {
	prompt := fill(classifyPrompt,
		"{{SUBJECT}}", msg.Subject,
		"{{FROM}}", msg.From,
		"{{BODY}}", model.Truncate(msg.Body, classifyBodyRunes),
	)

	raw, err := c.llm.Complete(ctx, c.model, classifyMaxTokens, prompt)
	if err != nil {
		logrus.WithFields(logrus.Fields{"message_id": msg.ID}).Warnf("Classification call failed: %v", err)
		return model.FailedSignal(fmt.Sprintf("Classification failed: %v", err))
	}

	signal, err := parseSignal(raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{"message_id": msg.ID}).Warnf("Classification response unusable: %v", err)
		return model.FailedSignal(fmt.Sprintf("Failed to parse response: %v", err))
	}
	return signal
}

func parseSignal(raw string) (model.JobSignal, error) {
	text := stripFences(raw)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return model.JobSignal{}, err
	}
	if _, ok := obj["is_recruiter_email"]; !ok {
		return model.JobSignal{}, fmt.Errorf("missing is_recruiter_email")
	}

	var signal model.JobSignal
	if err := json.Unmarshal([]byte(text), &signal); err != nil {
		return model.JobSignal{}, err
	}
	return signal.Normalize(), nil
}
