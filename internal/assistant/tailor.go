package assistant

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/samthedataman/resumably/internal/document"
	"github.com/samthedataman/resumably/internal/llm"
	"github.com/samthedataman/resumably/internal/model"
)

// Tailor rewrites a base resume toward one opportunity
type Tailor struct {
	llm   llm.Completer
	model string
}

// NewTailor creates a tailor on the quality model tier
func NewTailor(c llm.Completer, models llm.Models) *Tailor {
	return &Tailor{llm: c, model: models.Quality}
}

// Tailor returns a copy of base when the engine fails or answers with a
// document whose shape differs from base.
func (t *Tailor) Tailor(ctx context.Context, base document.Document, signal model.JobSignal, skillsContext document.Document) document.Document {
	skills := "No pre-computed skills data"
	if len(skillsContext) > 0 {
		skills = skillsContext.Indented()
	}

	prompt := fill(tailorPrompt,
		"{{TITLE}}", orUnknown(signal.JobTitle),
		"{{COMPANY}}", orUnknown(signal.Company),
		"{{REQUIREMENTS}}", joinOr(signal.KeyRequirements, ""),
		"{{TECHNOLOGIES}}", joinOr(signal.KeyTechnologies, ""),
		"{{JOB_TYPE}}", enumOrUnknown(signal.JobType),
		"{{LEVEL}}", enumOrUnknown(signal.SeniorityLevel),
		"{{SKILLS_CONTEXT}}", skills,
		"{{BASE_RESUME}}", base.Indented(),
	)

	raw, err := t.llm.Complete(ctx, t.model, tailorMaxTokens, prompt)
	if err != nil {
		logrus.Warnf("Resume tailoring call failed, using base resume: %v", err)
		return base.Clone()
	}

	tailored, err := document.Parse(stripFences(raw))
	if err == nil {
		err = document.ValidateShape(base, tailored)
	}
	if err != nil {
		logrus.Warnf("Tailored resume unusable, using base resume: %v", err)
		return base.Clone()
	}
	return tailored
}

func orUnknown(s *string) string {
	if s == nil {
		return "Unknown"
	}
	return *s
}

func enumOrUnknown[T ~string](v *T) string {
	if v == nil {
		return "Unknown"
	}
	return string(*v)
}
