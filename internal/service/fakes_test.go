package service

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/radcr/radcr-backend/internal/model"
)

// ─── Users / sessions ──────────────────────────────────────────────────

type memUsers struct {
	mu     sync.Mutex
	nextID int
	byName map[string]*model.User
}

func newMemUsers() *memUsers {
	return &memUsers{byName: map[string]*model.User{}}
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	cp := *u
	m.byName[u.Username] = &cp
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byName[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byName {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memSessions struct {
	mu   sync.Mutex
	jtis map[int]string
}

func newMemSessions() *memSessions {
	return &memSessions{jtis: map[int]string{}}
}

func (m *memSessions) SetSession(_ context.Context, userID int, jti string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jtis[userID] = jti
	return nil
}

func (m *memSessions) GetSession(_ context.Context, userID int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jtis[userID], nil
}

func (m *memSessions) DeleteSession(_ context.Context, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jtis, userID)
	return nil
}

// ─── Questionnaires / drafts ───────────────────────────────────────────

// memQuestionnaires stores JSON snapshots so callers never share memory
// with the stored document, like a real database.
type memQuestionnaires struct {
	mu   sync.Mutex
	docs map[uuid.UUID][]byte
	now  time.Time
}

func newMemQuestionnaires() *memQuestionnaires {
	return &memQuestionnaires{docs: map[uuid.UUID][]byte{}, now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memQuestionnaires) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memQuestionnaires) put(q *model.Questionnaire) {
	raw, _ := json.Marshal(q)
	m.docs[q.ID] = raw
}

func (m *memQuestionnaires) load(id uuid.UUID, userID int) (*model.Questionnaire, error) {
	raw, ok := m.docs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	var q model.Questionnaire
	_ = json.Unmarshal(raw, &q)
	if q.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	q.Normalize()
	return &q, nil
}

func (m *memQuestionnaires) Create(_ context.Context, q *model.Questionnaire) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.Normalize()
	q.CreatedAt = m.tick()
	q.UpdatedAt = q.CreatedAt
	m.put(q)
	return nil
}

func (m *memQuestionnaires) GetByID(_ context.Context, id uuid.UUID, userID int) (*model.Questionnaire, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id, userID)
}

func (m *memQuestionnaires) ListByUser(_ context.Context, userID int) ([]model.QuestionnaireSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.QuestionnaireSummary
	for id := range m.docs {
		q, err := m.load(id, userID)
		if err != nil {
			continue
		}
		out = append(out, model.QuestionnaireSummary{ID: q.ID, Title: q.Title, QuestionCount: len(q.Questions), UpdatedAt: q.UpdatedAt})
	}
	return out, nil
}

// Stamp holds the same lock as Mutate, like the row lock it stands for.
func (m *memQuestionnaires) Stamp(_ context.Context, id uuid.UUID, userID int, fn func(at time.Time) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.load(id, userID); err != nil {
		return err
	}
	return fn(m.tick())
}

func (m *memQuestionnaires) Mutate(_ context.Context, id uuid.UUID, userID int, fn func(*model.Questionnaire) error) (*model.Questionnaire, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, err := m.load(id, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(q); err != nil {
		return nil, err
	}
	q.Normalize()
	q.UpdatedAt = m.tick()
	m.put(q)
	return q, nil
}

func (m *memQuestionnaires) Delete(_ context.Context, id uuid.UUID, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.load(id, userID); err != nil {
		return err
	}
	delete(m.docs, id)
	return nil
}

type memDrafts struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]AnswerDraft
	queued int
}

func newMemDrafts() *memDrafts {
	return &memDrafts{drafts: map[uuid.UUID]AnswerDraft{}}
}

func (m *memDrafts) PutDraft(_ context.Context, d AnswerDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[d.QuestionnaireID] = d
	m.queued++
	return nil
}

func (m *memDrafts) GetDraft(_ context.Context, id uuid.UUID) (*AnswerDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *memDrafts) DeleteDraft(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

func (m *memDrafts) DeleteDraftAt(_ context.Context, id uuid.UUID, savedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drafts[id]; ok && d.SavedAt.Equal(savedAt) {
		delete(m.drafts, id)
	}
	return nil
}

// ─── Cases / files ─────────────────────────────────────────────────────

type memCases struct {
	mu    sync.Mutex
	cases map[uuid.UUID][]byte
}

func newMemCases() *memCases {
	return &memCases{cases: map[uuid.UUID][]byte{}}
}

func (m *memCases) load(id uuid.UUID, userID int) (*model.Case, error) {
	raw, ok := m.cases[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	var c model.Case
	_ = json.Unmarshal(raw, &c)
	if c.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	c.Normalize()
	return &c, nil
}

func (m *memCases) put(c *model.Case) {
	raw, _ := json.Marshal(c)
	m.cases[c.ID] = raw
}

func (m *memCases) Create(_ context.Context, c *model.Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Normalize()
	m.put(c)
	return nil
}

func (m *memCases) GetByID(_ context.Context, id uuid.UUID, userID int) (*model.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id, userID)
}

func (m *memCases) matching(userID int, f model.CaseFilter) []model.Case {
	var out []model.Case
	for id := range m.cases {
		c, err := m.load(id, userID)
		if err != nil {
			continue
		}
		if len(f.Difficulties) > 0 && !containsInt(f.Difficulties, c.Difficulty) {
			continue
		}
		if f.Tag != "" && !containsString(c.Tags, f.Tag) {
			continue
		}
		out = append(out, *c)
	}
	return out
}

func (m *memCases) List(_ context.Context, userID int, f model.CaseFilter) ([]model.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matching(userID, f), nil
}

func (m *memCases) Random(_ context.Context, userID int, f model.CaseFilter) (*model.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.matching(userID, f)
	if len(all) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &all[0], nil
}

func (m *memCases) Mutate(_ context.Context, id uuid.UUID, userID int, fn func(*model.Case) error) (*model.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.load(id, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	c.Normalize()
	m.put(c)
	return c, nil
}

func (m *memCases) Delete(_ context.Context, id uuid.UUID, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.load(id, userID); err != nil {
		return err
	}
	delete(m.cases, id)
	return nil
}

type memFiles struct {
	mu      sync.Mutex
	saved   int
	removed []string
	fail    error
}

func (m *memFiles) SaveCaseFile(_ multipart.File, h *multipart.FileHeader) (StoredFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return StoredFile{}, m.fail
	}
	m.saved++
	return StoredFile{URL: "/uploads/" + h.Filename}, nil
}

func (m *memFiles) Remove(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, url)
	return nil
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
