package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestFailedSignal(t *testing.T) {
	s := FailedSignal("timeout")
	assert.False(t, s.IsRecruiterEmail)
	assert.Equal(t, 0.0, s.Confidence)
	assert.Equal(t, "timeout", s.Reason)
	assert.NotNil(t, s.KeyTechnologies)

	assert.NotEmpty(t, FailedSignal("  ").Reason)
}

func TestJobSignalNormalize(t *testing.T) {
	jt := JobType("Remote")
	lvl := Seniority("principal")
	s := JobSignal{
		IsRecruiterEmail: true,
		Confidence:       1.7,
		JobTitle:         strPtr("  Data Engineer "),
		Company:          strPtr(""),
		KeyTechnologies:  []string{"Spark", " ", "dbt"},
		JobType:          &jt,
		SeniorityLevel:   &lvl,
	}.Normalize()

	assert.Equal(t, 1.0, s.Confidence)
	require.NotNil(t, s.JobTitle)
	assert.Equal(t, "Data Engineer", *s.JobTitle)
	assert.Nil(t, s.Company)
	assert.Equal(t, []string{"Spark", "dbt"}, s.KeyTechnologies)
	assert.Equal(t, []string{}, s.KeyRequirements)
	require.NotNil(t, s.JobType)
	assert.Equal(t, JobTypeRemote, *s.JobType)
	assert.Nil(t, s.SeniorityLevel)

	assert.Equal(t, 0.0, JobSignal{Confidence: -0.2}.Normalize().Confidence)
}

func TestProcessedEmailKeepsSignal(t *testing.T) {
	jt := JobTypeContract
	signal := JobSignal{
		IsRecruiterEmail: true,
		Confidence:       0.92,
		JobTitle:         strPtr("Senior Data Engineer"),
		KeyTechnologies:  []string{"Spark", "AWS"},
		JobType:          &jt,
		Reason:           "Direct outreach for a role",
	}
	body := make([]rune, MaxStoredBodyRunes+100)
	for i := range body {
		body[i] = 'é'
	}
	msg := Message{ID: "m1", Subject: "Role", From: "Jane <jane@corp.com>", Body: string(body)}

	pe := NewProcessedEmail(7, msg, signal, time.Now())
	assert.Equal(t, uint(7), pe.UserID)
	assert.Equal(t, "m1", pe.MessageID)
	assert.Len(t, []rune(pe.Body), MaxStoredBodyRunes)

	got := pe.Signal()
	assert.Equal(t, signal.IsRecruiterEmail, got.IsRecruiterEmail)
	assert.Equal(t, signal.KeyTechnologies, got.KeyTechnologies)
	assert.Equal(t, []string{}, got.KeyRequirements)
	assert.Equal(t, *signal.JobTitle, *got.JobTitle)
	assert.Equal(t, JobTypeContract, *got.JobType)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "héllo", Truncate("héllo", 10))
	assert.Equal(t, "", Truncate("héllo", 0))
}

func TestSenderAddress(t *testing.T) {
	assert.Equal(t, "jane@corp.com", SenderAddress("Jane Doe <jane@corp.com>"))
	assert.Equal(t, "jane@corp.com", SenderAddress("jane@corp.com"))
	assert.Equal(t, "x@y.z", SenderAddress("\"Broken, Name\" <x@y.z"+">"))
	assert.Equal(t, "not an address", SenderAddress(" not an address "))
}

func TestDraftTransitions(t *testing.T) {
	assert.True(t, CanTransition(DraftStatusDraft, DraftStatusSent))
	assert.True(t, CanTransition(DraftStatusDraft, DraftStatusArchived))
	assert.False(t, CanTransition(DraftStatusSent, DraftStatusArchived))
	assert.False(t, CanTransition(DraftStatusArchived, DraftStatusDraft))
	assert.False(t, CanTransition(DraftStatusDraft, DraftStatusDraft))

	st, err := ParseDraftStatus("sent")
	assert.NoError(t, err)
	assert.Equal(t, DraftStatusSent, st)
	_, err = ParseDraftStatus("bogus")
	assert.Error(t, err)
}

func TestNormalizeCategoryAndName(t *testing.T) {
	assert.Equal(t, CategoryCloud, NormalizeCategory(" Cloud "))
	assert.Equal(t, CategoryOther, NormalizeCategory("quantum"))
	assert.Equal(t, "apache spark", NormalizeSkillName("  Apache Spark "))
}
