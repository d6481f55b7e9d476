package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/radcr/radcr-backend/internal/model"
)

// UserStore is the persistence used by AuthService.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id int) (*model.User, error)
}

// QuestionnaireStore is the persistence used by QuestionnaireService.
type QuestionnaireStore interface {
	Create(ctx context.Context, q *model.Questionnaire) error
	GetByID(ctx context.Context, id uuid.UUID, userID int) (*model.Questionnaire, error)
	ListByUser(ctx context.Context, userID int) ([]model.QuestionnaireSummary, error)
	Mutate(ctx context.Context, id uuid.UUID, userID int, fn func(*model.Questionnaire) error) (*model.Questionnaire, error)
	Stamp(ctx context.Context, id uuid.UUID, userID int, fn func(at time.Time) error) error
	Delete(ctx context.Context, id uuid.UUID, userID int) error
}

// CaseStore is the persistence used by CaseService.
type CaseStore interface {
	Create(ctx context.Context, c *model.Case) error
	GetByID(ctx context.Context, id uuid.UUID, userID int) (*model.Case, error)
	List(ctx context.Context, userID int, f model.CaseFilter) ([]model.Case, error)
	Random(ctx context.Context, userID int, f model.CaseFilter) (*model.Case, error)
	Mutate(ctx context.Context, id uuid.UUID, userID int, fn func(*model.Case) error) (*model.Case, error)
	Delete(ctx context.Context, id uuid.UUID, userID int) error
}

// SessionStore keeps the active token id of every logged-in user.
type SessionStore interface {
	SetSession(ctx context.Context, userID int, jti string, ttl time.Duration) error
	GetSession(ctx context.Context, userID int) (string, error)
	DeleteSession(ctx context.Context, userID int) error
}

// DraftStore caches unsaved answer states and queues them for persistence.
type DraftStore interface {
	PutDraft(ctx context.Context, d AnswerDraft) error
	GetDraft(ctx context.Context, questionnaireID uuid.UUID) (*AnswerDraft, error)
	DeleteDraft(ctx context.Context, questionnaireID uuid.UUID) error
	// DeleteDraftAt removes the draft only if it is the one saved at savedAt.
	DeleteDraftAt(ctx context.Context, questionnaireID uuid.UUID, savedAt time.Time) error
}

// AnswerDraft is an answer state captured by autosave, not yet persisted.
type AnswerDraft struct {
	QuestionnaireID uuid.UUID         `json:"questionnaire_id"`
	UserID          int               `json:"user_id"`
	State           model.AnswerState `json:"state"`
	SavedAt         time.Time         `json:"saved_at"`
}
