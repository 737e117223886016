package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/samthedataman/resumably/internal/llm"
	"github.com/samthedataman/resumably/internal/model"
)

// maxDefaultMatched is how many technologies stand in for matched skills
const maxDefaultMatched = 5

// Original is the message being replied to
type Original struct {
	From    string
	Subject string
	Body    string
}

// Candidate identifies the job seeker signing the reply
type Candidate struct {
	Name  string
	Title string
	Email string
}

// Composer writes short replies to recruiters
type Composer struct {
	llm   llm.Completer
	model string
}

// NewComposer creates a composer on the fast model tier
func NewComposer(c llm.Completer, models llm.Models) *Composer {
	return &Composer{llm: c, model: models.Fast}
}

// Compose returns the reply body. Engine errors are returned unchanged.
func (c *Composer) Compose(ctx context.Context, original Original, signal model.JobSignal, candidate Candidate, matched []string) (string, error) {
	if len(matched) == 0 {
		matched = signal.KeyTechnologies
		if len(matched) > maxDefaultMatched {
			matched = matched[:maxDefaultMatched]
		}
	}

	name := candidate.Name
	if strings.TrimSpace(name) == "" {
		name = "Candidate"
	}

	prompt := fill(replyPrompt,
		"{{FROM}}", original.From,
		"{{SUBJECT}}", original.Subject,
		"{{BODY}}", model.Truncate(original.Body, replyBodyRunes),
		"{{TITLE}}", orDefault(signal.JobTitle, "the position"),
		"{{COMPANY}}", orDefault(signal.Company, "your company"),
		"{{TECHNOLOGIES}}", strings.Join(signal.KeyTechnologies, ", "),
		"{{MATCHED}}", strings.Join(matched, ", "),
		"{{NAME}}", name,
		"{{CANDIDATE_TITLE}}", candidate.Title,
		"{{EMAIL}}", candidate.Email,
		"{{GREETING}}", Greeting(signal.RecruiterName),
		"{{SIGN_OFF}}", SignOff(candidate.Name),
	)

	reply, err := c.llm.Complete(ctx, c.model, replyMaxTokens, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to compose reply: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// Greeting opens the reply with the recruiter's name when known
func Greeting(recruiterName *string) string {
	if recruiterName != nil && strings.TrimSpace(*recruiterName) != "" {
		return fmt.Sprintf("Hi %s,", strings.TrimSpace(*recruiterName))
	}
	return "Hi,"
}

// SignOff closes the reply with the candidate's first name
func SignOff(candidateName string) string {
	fields := strings.Fields(candidateName)
	if len(fields) == 0 {
		return "Best, Candidate"
	}
	return "Best, " + fields[0]
}

func orDefault(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}
