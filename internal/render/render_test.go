package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samthedataman/resumably/internal/config"
	"github.com/samthedataman/resumably/internal/document"
)

func sampleDoc() document.Document {
	return document.Document{
		"personal": map[string]any{
			"name":     "Sam Doe",
			"email":    "sam@example.com",
			"location": "Austin, TX",
			"github":   "samdoe",
		},
		"summary": "Data engineer <building> pipelines.",
		"skills": map[string]any{
			"data_engineering": []any{"Spark", "Airflow"},
			"cloud":            []any{"AWS"},
			"empty":            []any{},
		},
		"experience": []any{
			map[string]any{
				"title":      "Senior Engineer",
				"company":    "Acme",
				"location":   "Remote",
				"start_date": "2021",
				"end_date":   "Present",
				"highlights": []any{"Cut costs 30%"},
			},
		},
		"education": []any{
			map[string]any{"degree": "BSc CS", "institution": "UT", "graduation_date": "2015", "gpa": 3.8},
		},
		"projects": []any{
			map[string]any{"name": "etl-kit", "link": "github.com/samdoe/etl-kit", "technologies": []any{"Go"}},
		},
		"certifications": []any{"AWS SA"},
	}
}

func TestHTMLSections(t *testing.T) {
	html, err := HTML(sampleDoc())
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Sam Doe</h1>")
	assert.Contains(t, html, "sam@example.com | Austin, TX | github.com/samdoe")
	assert.Contains(t, html, "PROFESSIONAL SUMMARY")
	assert.Contains(t, html, "Data engineer &lt;building&gt; pipelines.")
	assert.Contains(t, html, "<b>Cloud:</b> AWS")
	assert.Contains(t, html, "<b>Data Engineering:</b> Spark, Airflow")
	assert.NotContains(t, html, "Empty:")
	assert.Contains(t, html, "Acme | Remote | 2021 - Present")
	assert.Contains(t, html, "<li>Cut costs 30%</li>")
	assert.Contains(t, html, "UT | 2015 | GPA: 3.8")
	assert.Contains(t, html, "etl-kit - github.com/samdoe/etl-kit")
	assert.Contains(t, html, "Technologies: Go")
	assert.Contains(t, html, "<li>AWS SA</li>")
}

func TestHTMLMinimalDocument(t *testing.T) {
	html, err := HTML(document.Document{})
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Name</h1>")
	assert.NotContains(t, html, "PROFESSIONAL SUMMARY")
	assert.NotContains(t, html, "TECHNICAL SKILLS")
	assert.NotContains(t, html, "CERTIFICATIONS")
}

func TestHTMLFlatSkillList(t *testing.T) {
	html, err := HTML(document.Document{"skills": []any{"Go", map[string]any{"name": "SQL"}}})
	require.NoError(t, err)
	assert.Contains(t, html, "<p>Go, SQL</p>")
}

func TestAttachmentName(t *testing.T) {
	assert.Equal(t, "Sam_Doe_Resume.pdf", AttachmentName(sampleDoc()))
	assert.Equal(t, "Candidate_Resume.pdf", AttachmentName(document.Document{}))
	assert.Equal(t, "Ana_Maria_Lopez_Resume.pdf", AttachmentName(document.Document{
		"personal": map[string]any{"name": "  Ana  Maria Lopez "},
	}))
}

func TestNewChromedpRendererDefaults(t *testing.T) {
	r := NewChromedpRenderer(config.RenderConfig{})
	assert.Equal(t, 30*time.Second, r.timeout)
	assert.Empty(t, r.remoteURL)
}
