// Package document holds the resume document exchanged with the reasoning
// engine and the renderer.
package document

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/samthedataman/resumably/internal/model"
)

// Top-level keys of a resume document
const (
	KeyPersonal       = "personal"
	KeySummary        = "summary"
	KeySkills         = "skills"
	KeyExperience     = "experience"
	KeyEducation      = "education"
	KeyProjects       = "projects"
	KeyCertifications = "certifications"
)

// Document is a resume as a JSON object
type Document map[string]any

// FromResume converts a stored resume into its document form. Values are
// round-tripped through JSON so the document holds only decoded JSON types.
func FromResume(r *model.Resume) (Document, error) {
	raw := map[string]any{
		KeyPersonal:       orEmptyMap(r.PersonalInfo),
		KeySummary:        r.Summary,
		KeySkills:         orEmptyMap(r.Skills),
		KeyExperience:     orEmptySlice(r.Experience),
		KeyEducation:      orEmptySlice(r.Education),
		KeyProjects:       orEmptySlice(r.Projects),
		KeyCertifications: orEmptyStrings(r.Certifications),
	}
	doc, err := normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert resume %d: %w", r.ID, err)
	}
	return doc, nil
}

// Parse decodes a JSON object into a document
func Parse(raw string) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document is not a JSON object")
	}
	return doc, nil
}

// Clone returns a deep copy
func (d Document) Clone() Document {
	if d == nil {
		return Document{}
	}
	out, err := normalize(d)
	if err != nil {
		return Document{}
	}
	return out
}

// Indented renders the document as indented JSON
func (d Document) Indented() string {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Personal returns the personal section, or an empty map
func (d Document) Personal() map[string]any {
	if p, ok := d[KeyPersonal].(map[string]any); ok {
		return p
	}
	return map[string]any{}
}

// PersonalString returns a string field of the personal section
func (d Document) PersonalString(key string) string {
	s, _ := d.Personal()[key].(string)
	return strings.TrimSpace(s)
}

// SkillNames lists every skill named in the document, lower-cased and sorted.
// Skills may be a category map of lists, a flat list of names or a list of
// objects carrying a "name" field.
func (d Document) SkillNames() []string {
	seen := map[string]struct{}{}
	var collect func(v any)
	collect = func(v any) {
		switch t := v.(type) {
		case string:
			if n := model.NormalizeSkillName(t); n != "" {
				seen[n] = struct{}{}
			}
		case []any:
			for _, item := range t {
				collect(item)
			}
		case map[string]any:
			if name, ok := t["name"].(string); ok {
				collect(name)
				return
			}
			for _, item := range t {
				collect(item)
			}
		}
	}
	collect(d[KeySkills])

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func normalize(v any) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out Document
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orEmptySlice(s []map[string]any) []map[string]any {
	if s == nil {
		return []map[string]any{}
	}
	return s
}

func orEmptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
