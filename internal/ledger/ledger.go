// Package ledger holds the merge rule for skills learned from recruiter mail.
package ledger

import (
	"sort"
	"time"

	"github.com/samthedataman/resumably/internal/model"
)

// Apply merges one mention into an existing ledger entry, or starts a new
// entry when existing is nil. The count always equals the number of
// contexts, contexts are appended in arrival order and the category is
// overwritten by the latest mention.
func Apply(existing *model.SkillLearning, userID uint, mention model.SkillMention, now time.Time) model.SkillLearning {
	if existing == nil {
		return model.SkillLearning{
			UserID:          userID,
			SkillName:       model.NormalizeSkillName(mention.Name),
			Category:        model.NormalizeCategory(mention.Category),
			OccurrenceCount: 1,
			Contexts:        []string{mention.Context},
			LastSeen:        now,
			CreatedAt:       now,
		}
	}

	next := *existing
	next.Contexts = append(append([]string(nil), existing.Contexts...), mention.Context)
	next.OccurrenceCount = existing.OccurrenceCount + 1
	next.Category = model.NormalizeCategory(mention.Category)
	next.LastSeen = now
	return next
}

// Ordered drops mentions with a blank name and sorts the rest by normalised
// name. Mentions of the same skill keep their relative order, so row locks
// are always taken in the same order.
func Ordered(mentions []model.SkillMention) []model.SkillMention {
	out := make([]model.SkillMention, 0, len(mentions))
	for _, m := range mentions {
		if model.NormalizeSkillName(m.Name) != "" {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return model.NormalizeSkillName(out[i].Name) < model.NormalizeSkillName(out[j].Name)
	})
	return out
}
