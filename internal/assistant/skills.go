package assistant

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/samthedataman/resumably/internal/llm"
	"github.com/samthedataman/resumably/internal/model"
)

// SkillExtractor lists the skills a message mentions
type SkillExtractor struct {
	llm   llm.Completer
	model string
}

// NewSkillExtractor creates an extractor on the fast model tier
func NewSkillExtractor(c llm.Completer, models llm.Models) *SkillExtractor {
	return &SkillExtractor{llm: c, model: models.Fast}
}

// Extract returns an empty list on any engine or parse failure
func (e *SkillExtractor) Extract(ctx context.Context, msg model.Message) []model.SkillMention {
	prompt := fill(skillsPrompt,
		"{{SUBJECT}}", msg.Subject,
		"{{BODY}}", model.Truncate(msg.Body, skillsBodyRunes),
	)

	raw, err := e.llm.Complete(ctx, e.model, skillsMaxTokens, prompt)
	if err != nil {
		logrus.WithFields(logrus.Fields{"message_id": msg.ID}).Warnf("Skill extraction call failed: %v", err)
		return []model.SkillMention{}
	}

	var mentions []model.SkillMention
	if err := json.Unmarshal([]byte(stripFences(raw)), &mentions); err != nil {
		logrus.WithFields(logrus.Fields{"message_id": msg.ID}).Warnf("Skill extraction response unusable: %v", err)
		return []model.SkillMention{}
	}

	out := make([]model.SkillMention, 0, len(mentions))
	for _, m := range mentions {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		out = append(out, model.SkillMention{
			Name:     name,
			Category: model.NormalizeCategory(m.Category),
			Context:  strings.TrimSpace(m.Context),
		})
	}
	return out
}
