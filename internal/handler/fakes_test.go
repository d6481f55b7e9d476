package handler

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/radcr/radcr-backend/internal/model"
	"github.com/radcr/radcr-backend/internal/service"
)

type memUsers struct {
	mu    sync.Mutex
	users []model.User
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = len(m.users) + 1
	u.CreatedAt = time.Now()
	m.users = append(m.users, *u)
	return nil
}

func (m *memUsers) find(match func(model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.Username == username })
}

func (m *memUsers) GetByID(_ context.Context, id int) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.ID == id })
}

type memSessions struct {
	mu   sync.Mutex
	jtis map[int]string
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

// memQuestionnaires keeps JSON snapshots so handlers never share memory with storage.
type memQuestionnaires struct {
	mu   sync.Mutex
	docs map[uuid.UUID][]byte
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

func (m *memQuestionnaires) put(q *model.Questionnaire) {
	q.Normalize()
	q.UpdatedAt = time.Now()
	raw, _ := json.Marshal(q)
	m.docs[q.ID] = raw
}

func (m *memQuestionnaires) Create(_ context.Context, q *model.Questionnaire) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.CreatedAt = time.Now()
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
	out := []model.QuestionnaireSummary{}
	for id := range m.docs {
		if q, err := m.load(id, userID); err == nil {
			out = append(out, model.QuestionnaireSummary{ID: q.ID, Title: q.Title, QuestionCount: len(q.Questions), UpdatedAt: q.UpdatedAt})
		}
	}
	return out, nil
}

func (m *memQuestionnaires) Stamp(_ context.Context, id uuid.UUID, userID int, fn func(at time.Time) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.load(id, userID); err != nil {
		return err
	}
	return fn(time.Now())
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
	drafts map[uuid.UUID]service.AnswerDraft
}

func (m *memDrafts) PutDraft(_ context.Context, d service.AnswerDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[d.QuestionnaireID] = d
	return nil
}

func (m *memDrafts) GetDraft(_ context.Context, id uuid.UUID) (*service.AnswerDraft, error) {
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
