package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samthedataman/resumably/internal/ledger"
	"github.com/samthedataman/resumably/internal/model"
)

// memoryDB keeps every table behind one mutex, which gives the in-memory
// store the same serialisation the SQL store gets from row locks.
type memoryDB struct {
	mu        sync.Mutex
	nextID    uint
	processed map[uint]model.ProcessedEmail
	learned   map[uint]model.SkillLearning
	resumes   map[uint]model.Resume
	drafts    map[uint]model.EmailDraft
	skills    map[uint]model.Skill
	users     map[uint]model.User
}

// NewMemoryStore returns a Store backed by process memory and safe for concurrent use
func NewMemoryStore() *Store {
	m := &memoryDB{
		processed: make(map[uint]model.ProcessedEmail),
		learned:   make(map[uint]model.SkillLearning),
		resumes:   make(map[uint]model.Resume),
		drafts:    make(map[uint]model.EmailDraft),
		skills:    make(map[uint]model.Skill),
		users:     make(map[uint]model.User),
	}
	return &Store{
		ProcessedEmails: &memoryProcessed{m},
		Ledger:          &memoryLedger{m},
		Resumes:         &memoryResumes{m},
		Drafts:          &memoryDrafts{m},
		Skills:          &memorySkills{m},
		Users:           &memoryUsers{m},
	}
}

func (m *memoryDB) id() uint {
	m.nextID++
	return m.nextID
}

func sortedIDs[T any](rows map[uint]T) []uint {
	ids := make([]uint, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type memoryProcessed struct{ m *memoryDB }

func (r *memoryProcessed) FindByMessageID(ctx context.Context, userID uint, messageID string) (*model.ProcessedEmail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.find(userID, messageID)
}

func (r *memoryProcessed) find(userID uint, messageID string) (*model.ProcessedEmail, error) {
	for _, pe := range r.m.processed {
		if pe.UserID == userID && pe.MessageID == messageID {
			out := pe
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryProcessed) Get(ctx context.Context, userID, id uint) (*model.ProcessedEmail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	pe, ok := r.m.processed[id]
	if !ok || pe.UserID != userID {
		return nil, ErrNotFound
	}
	return &pe, nil
}

func (r *memoryProcessed) InsertIfAbsent(ctx context.Context, pe *model.ProcessedEmail) (*model.ProcessedEmail, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if existing, err := r.find(pe.UserID, pe.MessageID); err == nil {
		return existing, false, nil
	}
	pe.ID = r.m.id()
	r.m.processed[pe.ID] = *pe
	return pe, true, nil
}

func (r *memoryProcessed) List(ctx context.Context, userID uint, recruiterOnly bool, limit int) ([]model.ProcessedEmail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []model.ProcessedEmail{}
	for _, pe := range r.m.processed {
		if pe.UserID != userID || (recruiterOnly && !pe.IsRecruiterEmail) {
			continue
		}
		out = append(out, pe)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProcessedAt.Equal(out[j].ProcessedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].ProcessedAt.After(out[j].ProcessedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryProcessed) Count(ctx context.Context, userID uint) (int64, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var total, recruiter int64
	for _, pe := range r.m.processed {
		if pe.UserID != userID {
			continue
		}
		total++
		if pe.IsRecruiterEmail {
			recruiter++
		}
	}
	return total, recruiter, nil
}

type memoryLedger struct{ m *memoryDB }

func (r *memoryLedger) RecordMentions(ctx context.Context, userID uint, mentions []model.SkillMention) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now()
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, mention := range ledger.Ordered(mentions) {
		name := model.NormalizeSkillName(mention.Name)
		var existing *model.SkillLearning
		for _, id := range sortedIDs(r.m.learned) {
			if e := r.m.learned[id]; e.UserID == userID && e.SkillName == name {
				existing = &e
				break
			}
		}
		entry := ledger.Apply(existing, userID, mention, now)
		if existing == nil {
			entry.ID = r.m.id()
		}
		r.m.learned[entry.ID] = entry
	}
	return nil
}

func (r *memoryLedger) Get(ctx context.Context, userID, id uint) (*model.SkillLearning, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e, ok := r.m.learned[id]
	if !ok || e.UserID != userID {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (r *memoryLedger) List(ctx context.Context, userID uint, limit int) ([]model.SkillLearning, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []model.SkillLearning{}
	for _, e := range r.m.learned {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OccurrenceCount == out[j].OccurrenceCount {
			return out[i].SkillName < out[j].SkillName
		}
		return out[i].OccurrenceCount > out[j].OccurrenceCount
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memoryResumes struct{ m *memoryDB }

func (r *memoryResumes) Create(ctx context.Context, resume *model.Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	first := true
	for _, existing := range r.m.resumes {
		if existing.UserID == resume.UserID {
			first = false
			break
		}
	}
	if first {
		resume.IsDefault = true
	} else if resume.IsDefault {
		r.clearDefault(resume.UserID)
	}

	now := time.Now()
	resume.ID = r.m.id()
	resume.CreatedAt = now
	resume.UpdatedAt = now
	r.m.resumes[resume.ID] = *resume
	return nil
}

func (r *memoryResumes) clearDefault(userID uint) {
	for id, existing := range r.m.resumes {
		if existing.UserID == userID && existing.IsDefault {
			existing.IsDefault = false
			r.m.resumes[id] = existing
		}
	}
}

func (r *memoryResumes) Get(ctx context.Context, userID, id uint) (*model.Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	resume, ok := r.m.resumes[id]
	if !ok || resume.UserID != userID {
		return nil, ErrNotFound
	}
	return &resume, nil
}

func (r *memoryResumes) GetDefault(ctx context.Context, userID uint) (*model.Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, id := range sortedIDs(r.m.resumes) {
		if resume := r.m.resumes[id]; resume.UserID == userID && resume.IsDefault {
			return &resume, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryResumes) List(ctx context.Context, userID uint) ([]model.Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []model.Resume{}
	for _, id := range sortedIDs(r.m.resumes) {
		if resume := r.m.resumes[id]; resume.UserID == userID {
			out = append(out, resume)
		}
	}
	return out, nil
}

func (r *memoryResumes) Update(ctx context.Context, resume *model.Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.resumes[resume.ID]
	if !ok || existing.UserID != resume.UserID {
		return ErrNotFound
	}
	updated := *resume
	updated.IsDefault = existing.IsDefault
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	r.m.resumes[resume.ID] = updated
	return nil
}

func (r *memoryResumes) Delete(ctx context.Context, userID, id uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	resume, ok := r.m.resumes[id]
	if !ok || resume.UserID != userID {
		return ErrNotFound
	}
	delete(r.m.resumes, id)
	return nil
}

func (r *memoryResumes) SetDefault(ctx context.Context, userID, id uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	target, ok := r.m.resumes[id]
	if !ok || target.UserID != userID {
		return ErrNotFound
	}
	r.clearDefault(userID)
	target.IsDefault = true
	r.m.resumes[id] = target
	return nil
}

type memoryDrafts struct{ m *memoryDB }

func (r *memoryDrafts) Create(ctx context.Context, d *model.EmailDraft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if d.Status == "" {
		d.Status = model.DraftStatusDraft
	}
	now := time.Now()
	d.ID = r.m.id()
	d.CreatedAt = now
	d.UpdatedAt = now
	stored := *d
	stored.ProcessedEmail = nil
	r.m.drafts[d.ID] = stored
	return nil
}

func (r *memoryDrafts) Get(ctx context.Context, userID, id uint) (*model.EmailDraft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	d, ok := r.m.drafts[id]
	if !ok || d.UserID != userID {
		return nil, ErrNotFound
	}
	if pe, ok := r.m.processed[d.ProcessedEmailID]; ok {
		d.ProcessedEmail = &pe
	}
	return &d, nil
}

func (r *memoryDrafts) List(ctx context.Context, userID uint, limit int) ([]model.EmailDraft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []model.EmailDraft{}
	ids := sortedIDs(r.m.drafts)
	for i := len(ids) - 1; i >= 0; i-- {
		if d := r.m.drafts[ids[i]]; d.UserID == userID {
			out = append(out, d)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryDrafts) UpdateStatus(ctx context.Context, userID, id uint, from, to model.DraftStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	d, ok := r.m.drafts[id]
	if !ok || d.UserID != userID {
		return ErrNotFound
	}
	if d.Status != from {
		return ErrStaleStatus
	}
	d.Status = to
	d.UpdatedAt = time.Now()
	r.m.drafts[id] = d
	return nil
}

func (r *memoryDrafts) Count(ctx context.Context, userID uint) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, d := range r.m.drafts {
		if d.UserID == userID {
			n++
		}
	}
	return n, nil
}

type memorySkills struct{ m *memoryDB }

func (r *memorySkills) Create(ctx context.Context, s *model.Skill) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Name = model.NormalizeSkillName(s.Name)
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.skills {
		if existing.UserID == s.UserID && existing.Name == s.Name {
			return ErrDuplicate
		}
	}
	if s.Source == "" {
		s.Source = model.SkillSourceManual
	}
	now := time.Now()
	s.ID = r.m.id()
	s.CreatedAt = now
	s.UpdatedAt = now
	r.m.skills[s.ID] = *s
	return nil
}

func (r *memorySkills) Get(ctx context.Context, userID, id uint) (*model.Skill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.skills[id]
	if !ok || s.UserID != userID {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *memorySkills) List(ctx context.Context, userID uint, category string) ([]model.Skill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []model.Skill{}
	for _, s := range r.m.skills {
		if s.UserID == userID && (category == "" || s.Category == category) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category == out[j].Category {
			return out[i].Name < out[j].Name
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (r *memorySkills) Update(ctx context.Context, s *model.Skill) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.skills[s.ID]
	if !ok || existing.UserID != s.UserID {
		return ErrNotFound
	}
	existing.Category = s.Category
	existing.Proficiency = s.Proficiency
	existing.YearsExperience = s.YearsExperience
	existing.ProofPoints = s.ProofPoints
	existing.Keywords = s.Keywords
	existing.UpdatedAt = time.Now()
	r.m.skills[s.ID] = existing
	return nil
}

func (r *memorySkills) Delete(ctx context.Context, userID, id uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.skills[id]
	if !ok || s.UserID != userID {
		return ErrNotFound
	}
	delete(r.m.skills, id)
	return nil
}

type memoryUsers struct{ m *memoryDB }

func (r *memoryUsers) Get(ctx context.Context, id uint) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memoryUsers) Create(ctx context.Context, u *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	now := time.Now()
	u.ID = r.m.id()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.m.users[u.ID] = *u
	return nil
}

func (r *memoryUsers) SaveMailboxToken(ctx context.Context, id uint, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.MailboxToken = token
	u.MailboxConnected = token != ""
	u.UpdatedAt = time.Now()
	r.m.users[id] = u
	return nil
}
