package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samthedataman/resumably/internal/assistant"
	"github.com/samthedataman/resumably/internal/document"
	"github.com/samthedataman/resumably/internal/mailbox"
	"github.com/samthedataman/resumably/internal/model"
)

type fakeMailbox struct {
	mu       sync.Mutex
	messages map[string]model.Message
	drafts   map[string]mailbox.Draft
	sent     []string
	deleted  []string
	sendErr  error
	draftErr error
	nextID   int
}

func newFakeMailbox(msgs ...model.Message) *fakeMailbox {
	f := &fakeMailbox{messages: map[string]model.Message{}, drafts: map[string]mailbox.Draft{}}
	for _, m := range msgs {
		f.messages[m.ID] = m
	}
	return f
}

func (f *fakeMailbox) ListMessages(ctx context.Context, query string, max int64, pageToken string) (*mailbox.MessagePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := &mailbox.MessagePage{}
	for _, m := range f.messages {
		page.Messages = append(page.Messages, m)
	}
	return page, nil
}

func (f *fakeMailbox) FetchMessage(ctx context.Context, id string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s not found", id)
	}
	return &m, nil
}

func (f *fakeMailbox) CreateDraft(ctx context.Context, d mailbox.Draft) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draftErr != nil {
		return "", f.draftErr
	}
	f.nextID++
	id := fmt.Sprintf("draft-%d", f.nextID)
	f.drafts[id] = d
	return id, nil
}

func (f *fakeMailbox) SendDraft(ctx context.Context, draftID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, draftID)
	return nil
}

func (f *fakeMailbox) DeleteDraft(ctx context.Context, draftID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, draftID)
	delete(f.drafts, draftID)
	return nil
}

type fakeProvider struct {
	box mailbox.Mailbox
	err error
}

func (p fakeProvider) For(ctx context.Context, userID uint) (mailbox.Mailbox, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.box, nil
}

type fakeClassifier struct {
	mu     sync.Mutex
	calls  int
	signal model.JobSignal
}

func (c *fakeClassifier) Classify(ctx context.Context, msg model.Message) model.JobSignal {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.signal
}

type fakeExtractor struct {
	mu       sync.Mutex
	calls    int
	mentions []model.SkillMention
}

func (e *fakeExtractor) Extract(ctx context.Context, msg model.Message) []model.SkillMention {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.mentions
}

type fakeTailor struct {
	skillsContext document.Document
}

func (t *fakeTailor) Tailor(ctx context.Context, base document.Document, signal model.JobSignal, skillsContext document.Document) document.Document {
	t.skillsContext = skillsContext
	out := base.Clone()
	out[document.KeySummary] = "Tailored summary"
	return out
}

type fakeComposer struct {
	err       error
	candidate assistant.Candidate
	matched   []string
}

func (c *fakeComposer) Compose(ctx context.Context, original assistant.Original, signal model.JobSignal, candidate assistant.Candidate, matched []string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.candidate = candidate
	c.matched = matched
	return "Hi Jane,\n\nThanks for reaching out.\n\nBest, Sam", nil
}

type fakeRenderer struct {
	err error
}

func (r fakeRenderer) RenderResumePDF(ctx context.Context, doc document.Document) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-fake"), nil
}

var errEngine = errors.New("engine unavailable")

func strPtr(s string) *string { return &s }
