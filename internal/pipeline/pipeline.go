// Package pipeline turns recruiter mail into classified records, ledger
// updates and reply drafts with a tailored resume attached.
package pipeline

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/samthedataman/resumably/internal/assistant"
	"github.com/samthedataman/resumably/internal/document"
	"github.com/samthedataman/resumably/internal/events"
	"github.com/samthedataman/resumably/internal/mailbox"
	"github.com/samthedataman/resumably/internal/metrics"
	"github.com/samthedataman/resumably/internal/model"
	"github.com/samthedataman/resumably/internal/render"
	"github.com/samthedataman/resumably/internal/repository"
)

// State is a step of the draft assembly flow
type State string

const (
	StateUnclassified  State = "unclassified"
	StateClassified    State = "classified"
	StateSkillsLearned State = "skills_learned"
	StateTailored      State = "tailored"
	StateComposed      State = "composed"
	StateRendered      State = "rendered"
	StateDrafted       State = "drafted"
)

// Classifier decides whether a message is recruiter outreach
type Classifier interface {
	Classify(ctx context.Context, msg model.Message) model.JobSignal
}

// SkillExtractor lists the skills a message asks for
type SkillExtractor interface {
	Extract(ctx context.Context, msg model.Message) []model.SkillMention
}

// Tailor rewrites a resume for a role
type Tailor interface {
	Tailor(ctx context.Context, base document.Document, signal model.JobSignal, skillsContext document.Document) document.Document
}

// Composer writes the reply body
type Composer interface {
	Compose(ctx context.Context, original assistant.Original, signal model.JobSignal, candidate assistant.Candidate, matched []string) (string, error)
}

// Deps are the collaborators of a Pipeline
type Deps struct {
	Store      repository.Store
	Mailboxes  mailbox.Provider
	Classifier Classifier
	Extractor  SkillExtractor
	Tailor     Tailor
	Composer   Composer
	Renderer   render.Renderer
	Events     events.Publisher
	Metrics    *metrics.Metrics
}

// Pipeline runs classification and draft assembly for one user at a time
type Pipeline struct {
	store      repository.Store
	mailboxes  mailbox.Provider
	classifier Classifier
	extractor  SkillExtractor
	tailor     Tailor
	composer   Composer
	renderer   render.Renderer
	events     events.Publisher
	metrics    *metrics.Metrics
	now        func() time.Time
}

// New creates a pipeline. Missing events and metrics default to no-ops.
func New(d Deps) *Pipeline {
	p := &Pipeline{
		store:      d.Store,
		mailboxes:  d.Mailboxes,
		classifier: d.Classifier,
		extractor:  d.Extractor,
		tailor:     d.Tailor,
		composer:   d.Composer,
		renderer:   d.Renderer,
		events:     d.Events,
		metrics:    d.Metrics,
		now:        time.Now,
	}
	if p.events == nil {
		p.events = events.Noop{}
	}
	if p.metrics == nil {
		p.metrics = metrics.NewMetrics(prometheus.NewRegistry())
	}
	return p
}

// Metrics exposes the counters the pipeline reports to
func (p *Pipeline) Metrics() *metrics.Metrics {
	return p.metrics
}

// Mailbox resolves the mailbox of a user
func (p *Pipeline) Mailbox(ctx context.Context, userID uint) (mailbox.Mailbox, error) {
	return p.mailboxes.For(ctx, userID)
}

func transition(log *logrus.Entry, state State) {
	log.WithField("state", state).Debug("Pipeline state changed")
}
