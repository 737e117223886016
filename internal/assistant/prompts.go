package assistant

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/classify.txt
	classifyPrompt string
	//go:embed prompts/skills.txt
	skillsPrompt string
	//go:embed prompts/tailor.txt
	tailorPrompt string
	//go:embed prompts/reply.txt
	replyPrompt string
)

// Token budgets per call
const (
	classifyMaxTokens = 1024
	skillsMaxTokens   = 1024
	tailorMaxTokens   = 4096
	replyMaxTokens    = 512
)

// Body excerpt limits, in runes
const (
	classifyBodyRunes = 3000
	skillsBodyRunes   = 3000
	replyBodyRunes    = 2000
)

func fill(template string, pairs ...string) string {
	return strings.NewReplacer(pairs...).Replace(template)
}

// stripFences removes a markdown code fence around a JSON payload.
// A ```json fence wins over a bare ``` fence.
func stripFences(raw string) string {
	text := raw
	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	} else if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+len("```"):]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	}
	return strings.TrimSpace(text)
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}
