package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/samthedataman/resumably/internal/document"
)

//go:embed templates/resume.html
var templateFS embed.FS

var resumeTemplate = template.Must(template.New("resume.html").
	Funcs(template.FuncMap{"join": strings.Join}).
	ParseFS(templateFS, "templates/resume.html"))

type skillGroup struct {
	Category string
	Items    []string
}

type entry struct {
	Title        string
	Details      []string
	Highlights   []string
	Link         string
	Description  string
	Technologies []string
}

type resumeView struct {
	Name           string
	Contact        []string
	Summary        string
	Skills         []skillGroup
	Experience     []entry
	Education      []entry
	Projects       []entry
	Certifications []string
}

// HTML renders a resume document as a printable page
func HTML(doc document.Document) (string, error) {
	var buf bytes.Buffer
	if err := resumeTemplate.Execute(&buf, newView(doc)); err != nil {
		return "", fmt.Errorf("failed to render resume template: %w", err)
	}
	return buf.String(), nil
}

func newView(doc document.Document) resumeView {
	v := resumeView{
		Name:           doc.PersonalString("name"),
		Summary:        str(doc[document.KeySummary]),
		Skills:         skillGroups(doc[document.KeySkills]),
		Certifications: strs(doc[document.KeyCertifications]),
	}
	if v.Name == "" {
		v.Name = "Name"
	}

	for _, key := range []string{"email", "phone", "location"} {
		if s := doc.PersonalString(key); s != "" {
			v.Contact = append(v.Contact, s)
		}
	}
	if s := doc.PersonalString("linkedin"); s != "" {
		v.Contact = append(v.Contact, "linkedin.com/in/"+s)
	}
	if s := doc.PersonalString("github"); s != "" {
		v.Contact = append(v.Contact, "github.com/"+s)
	}
	if s := doc.PersonalString("website"); s != "" {
		v.Contact = append(v.Contact, s)
	}

	for _, job := range objects(doc[document.KeyExperience]) {
		dates := strings.TrimSpace(str(job["start_date"]) + " - " + str(job["end_date"]))
		if dates == "-" {
			dates = ""
		}
		v.Experience = append(v.Experience, entry{
			Title:      str(job["title"]),
			Details:    nonBlank(str(job["company"]), str(job["location"]), dates),
			Highlights: strs(job["highlights"]),
		})
	}

	for _, edu := range objects(doc[document.KeyEducation]) {
		details := nonBlank(str(edu["institution"]), str(edu["graduation_date"]))
		if gpa := str(edu["gpa"]); gpa != "" {
			details = append(details, "GPA: "+gpa)
		}
		v.Education = append(v.Education, entry{
			Title:      str(edu["degree"]),
			Details:    details,
			Highlights: strs(edu["highlights"]),
		})
	}

	for _, p := range objects(doc[document.KeyProjects]) {
		v.Projects = append(v.Projects, entry{
			Title:        str(p["name"]),
			Link:         str(p["link"]),
			Description:  str(p["description"]),
			Technologies: strs(p["technologies"]),
		})
	}
	return v
}

// skillGroups accepts a category map or a flat list
func skillGroups(v any) []skillGroup {
	switch t := v.(type) {
	case map[string]any:
		categories := make([]string, 0, len(t))
		for k := range t {
			categories = append(categories, k)
		}
		sort.Strings(categories)

		var groups []skillGroup
		for _, c := range categories {
			items := strs(t[c])
			if len(items) == 0 {
				continue
			}
			groups = append(groups, skillGroup{Category: titleCase(c), Items: items})
		}
		return groups
	case []any:
		if items := strs(t); len(items) > 0 {
			return []skillGroup{{Items: items}}
		}
	}
	return nil
}

func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64, bool, int:
		return fmt.Sprint(t)
	}
	return ""
}

// strs reads a list of strings, taking "name" from object items
func strs(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		s := str(item)
		if m, ok := item.(map[string]any); ok {
			s = str(m["name"])
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func objects(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func nonBlank(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
