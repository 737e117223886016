package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/samthedataman/resumably/internal/model"
)

func sampleResume() *model.Resume {
	return &model.Resume{
		ID:           1,
		Name:         "Base",
		PersonalInfo: datatypes.JSONMap{"name": "Sam Rivera", "email": "sam@example.com", "title": "Data Engineer"},
		Summary:      "Builds pipelines.",
		Skills: datatypes.JSONMap{
			"data_engineering": []string{"Spark", "Airflow"},
			"cloud":            []string{"AWS"},
		},
		Experience: datatypes.NewJSONSlice([]map[string]any{
			{"company": "Acme", "title": "Engineer", "bullets": []string{"Built things"}},
		}),
		Certifications: datatypes.NewJSONSlice([]string{"AWS SA"}),
	}
}

func mustDocument(t *testing.T, r *model.Resume) Document {
	t.Helper()
	doc, err := FromResume(r)
	require.NoError(t, err)
	return doc
}

func TestFromResume(t *testing.T) {
	doc := mustDocument(t, sampleResume())

	assert.Equal(t, "Sam Rivera", doc.PersonalString("name"))
	assert.Equal(t, "Builds pipelines.", doc[KeySummary])
	assert.Equal(t, []any{}, doc[KeyEducation])
	assert.Len(t, doc[KeyExperience], 1)
	assert.Equal(t, []string{"airflow", "aws", "spark"}, doc.SkillNames())
}

func TestCloneIsDeep(t *testing.T) {
	doc := mustDocument(t, sampleResume())
	clone := doc.Clone()

	clone.Personal()["name"] = "Someone Else"
	assert.Equal(t, "Sam Rivera", doc.PersonalString("name"))
	assert.Equal(t, doc[KeySummary], clone[KeySummary])
}

func TestSkillNamesShapes(t *testing.T) {
	flat := Document{KeySkills: []any{"Go", " Python "}}
	assert.Equal(t, []string{"go", "python"}, flat.SkillNames())

	objects := Document{KeySkills: []any{map[string]any{"name": "Kafka", "level": "expert"}}}
	assert.Equal(t, []string{"kafka"}, objects.SkillNames())

	assert.Empty(t, Document{}.SkillNames())
}

func TestParse(t *testing.T) {
	doc, err := Parse(`{"summary": "x"}`)
	require.NoError(t, err)
	assert.Equal(t, "x", doc[KeySummary])

	_, err = Parse(`[1, 2]`)
	assert.Error(t, err)
	_, err = Parse(`null`)
	assert.Error(t, err)
}

func TestValidateShape(t *testing.T) {
	base := mustDocument(t, sampleResume())

	good := base.Clone()
	good[KeySummary] = "Tailored summary"
	assert.NoError(t, ValidateShape(base, good))

	missing := base.Clone()
	delete(missing, KeyProjects)
	assert.Error(t, ValidateShape(base, missing))

	wrongType := base.Clone()
	wrongType[KeyExperience] = "not a list"
	assert.Error(t, ValidateShape(base, wrongType))

	extra := base.Clone()
	extra["awards"] = []any{"Best Engineer 2024"}
	assert.Error(t, ValidateShape(base, extra))

	assert.Error(t, ValidateShape(base, nil))
}

func TestFromResumeHoldsDecodedTypes(t *testing.T) {
	doc := mustDocument(t, sampleResume())

	assert.IsType(t, []any{}, doc[KeyExperience])
	assert.IsType(t, []any{}, doc[KeyCertifications])
	assert.IsType(t, map[string]any{}, doc[KeySkills])
	assert.IsType(t, []any{}, doc[KeySkills].(map[string]any)["cloud"])

	schema := ShapeSchema(doc)
	props := schema["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "array"}, props[KeyExperience])
	assert.Equal(t, map[string]any{"type": "object"}, props[KeySkills])
}

func TestFromResumeRejectsUnencodableValues(t *testing.T) {
	r := sampleResume()
	r.PersonalInfo = datatypes.JSONMap{"callback": func() {}}

	_, err := FromResume(r)
	assert.Error(t, err)
}
