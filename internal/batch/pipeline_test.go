package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samthedataman/resumably/internal/mailbox"
	"github.com/samthedataman/resumably/internal/model"
	"github.com/samthedataman/resumably/internal/pipeline"
	"github.com/samthedataman/resumably/internal/repository"
)

// inbox serves messages by id; ids listed in broken fail to fetch
type inbox struct {
	broken map[string]bool
}

func (b *inbox) ListMessages(ctx context.Context, query string, max int64, pageToken string) (*mailbox.MessagePage, error) {
	return &mailbox.MessagePage{}, nil
}

func (b *inbox) FetchMessage(ctx context.Context, id string) (*model.Message, error) {
	if b.broken[id] {
		return nil, errors.New("message body unavailable")
	}
	return &model.Message{ID: id, Subject: "Role " + id, From: "jane@acme.com", Body: "We use Go."}, nil
}

func (b *inbox) CreateDraft(ctx context.Context, d mailbox.Draft) (string, error) {
	return "", mailbox.ErrUnsupported
}

func (b *inbox) SendDraft(ctx context.Context, draftID string) error { return mailbox.ErrUnsupported }

func (b *inbox) DeleteDraft(ctx context.Context, draftID string) error { return mailbox.ErrUnsupported }

type inboxProvider struct {
	box mailbox.Mailbox
}

func (p inboxProvider) For(ctx context.Context, userID uint) (mailbox.Mailbox, error) {
	return p.box, nil
}

// recruiterClassifier flags every message as recruiter mail and panics on
// ids listed in panics.
type recruiterClassifier struct {
	panics map[string]bool
}

func (c recruiterClassifier) Classify(ctx context.Context, msg model.Message) model.JobSignal {
	if c.panics[msg.ID] {
		panic("classifier crashed")
	}
	return model.JobSignal{IsRecruiterEmail: true, Confidence: 0.9, KeyTechnologies: []string{"Go"}}
}

type goExtractor struct{}

func (goExtractor) Extract(ctx context.Context, msg model.Message) []model.SkillMention {
	return []model.SkillMention{{Name: "Go", Category: "languages", Context: msg.ID}}
}

func TestRunBatchStoresRowsAroundFailingMessage(t *testing.T) {
	cases := []struct {
		name       string
		box        *inbox
		classifier recruiterClassifier
	}{
		{name: "fetch error", box: &inbox{broken: map[string]bool{"B": true}}},
		{name: "classifier panic", box: &inbox{}, classifier: recruiterClassifier{panics: map[string]bool{"B": true}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store := repository.NewMemoryStore()
			p := pipeline.New(pipeline.Deps{
				Store:      *store,
				Mailboxes:  inboxProvider{box: tc.box},
				Classifier: tc.classifier,
				Extractor:  goExtractor{},
			})

			summary := NewRunner(p, nil, nil).RunBatch(ctx, 1, []string{"A", "B", "C"})
			assert.Equal(t, Summary{Processed: 2, Failed: 1}, summary)

			for _, id := range []string{"A", "C"} {
				stored, err := store.ProcessedEmails.FindByMessageID(ctx, 1, id)
				require.NoError(t, err, id)
				assert.True(t, stored.IsRecruiterEmail)
			}
			_, err := store.ProcessedEmails.FindByMessageID(ctx, 1, "B")
			assert.ErrorIs(t, err, repository.ErrNotFound)

			learned, err := store.Ledger.List(ctx, 1, 0)
			require.NoError(t, err)
			require.Len(t, learned, 1)
			assert.Equal(t, 2, learned[0].OccurrenceCount)

			// resubmitting is idempotent; only the failed message is retried
			again := NewRunner(p, nil, nil).RunBatch(ctx, 1, []string{"A", "B", "C"})
			assert.Equal(t, 2, again.Skipped)
		})
	}
}
