package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/radcr/radcr-backend/internal/model"
	"github.com/radcr/radcr-backend/internal/questionnaire"
	"github.com/radcr/radcr-backend/internal/report"
	"github.com/rs/zerolog"
)

// QuestionnaireService owns questionnaire documents: storage, tree edits,
// answer callbacks and report generation.
type QuestionnaireService struct {
	repo   QuestionnaireStore
	drafts DraftStore
	editor *questionnaire.Editor
	log    zerolog.Logger
}

// NewQuestionnaireService creates a new QuestionnaireService.
func NewQuestionnaireService(repo QuestionnaireStore, drafts DraftStore, editor *questionnaire.Editor, log zerolog.Logger) *QuestionnaireService {
	return &QuestionnaireService{
		repo:   repo,
		drafts: drafts,
		editor: editor,
		log:    log.With().Str("component", "questionnaire_service").Logger(),
	}
}

// ─── Documents ─────────────────────────────────────────────────────────

// List returns the summaries of a user's questionnaires.
func (s *QuestionnaireService) List(ctx context.Context, userID int) ([]model.QuestionnaireSummary, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.QuestionnaireSummary{}
	}
	return list, nil
}

// Create stores a new questionnaire built from req.
func (s *QuestionnaireService) Create(ctx context.Context, userID int, req model.SaveQuestionnaireRequest) (*model.Questionnaire, error) {
	if err := questionnaire.Check(req.Questions); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}

	q := &model.Questionnaire{
		ID:        id,
		UserID:    userID,
		Title:     req.Title,
		Questions: req.Questions,
		AnswerState: model.AnswerState{
			SelectedOptions: req.SelectedOptions,
			CRData:          req.CRData,
			HiddenQuestions: req.HiddenQuestions,
		},
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create questionnaire: %w", err)
	}
	return q, nil
}

// Get returns a questionnaire. A pending autosave draft newer than the
// stored document replaces its answer state.
func (s *QuestionnaireService) Get(ctx context.Context, id uuid.UUID, userID int) (*model.Questionnaire, error) {
	q, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, notFound(err)
	}

	d, err := s.drafts.GetDraft(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("questionnaire_id", id.String()).Msg("Draft lookup failed")
		return q, nil
	}
	if d != nil && d.UserID == userID && !d.SavedAt.Before(q.UpdatedAt) {
		q.AnswerState = d.State
		q.Normalize()
	}
	return q, nil
}

// Save replaces the whole document.
func (s *QuestionnaireService) Save(ctx context.Context, id uuid.UUID, userID int, req model.SaveQuestionnaireRequest) (*model.Questionnaire, error) {
	if err := questionnaire.Check(req.Questions); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, userID, func(q *model.Questionnaire) error {
		q.Title = req.Title
		q.Questions = req.Questions
		q.AnswerState = model.AnswerState{
			SelectedOptions: req.SelectedOptions,
			CRData:          req.CRData,
			HiddenQuestions: req.HiddenQuestions,
		}
		return nil
	})
}

// Delete removes a questionnaire and its draft.
func (s *QuestionnaireService) Delete(ctx context.Context, id uuid.UUID, userID int) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return notFound(err)
	}
	s.dropDraft(ctx, id)
	return nil
}

// Duplicate stores a copy of a questionnaire with fresh node ids. Answers
// are re-keyed onto the new question ids.
func (s *QuestionnaireService) Duplicate(ctx context.Context, id uuid.UUID, userID int) (*model.Questionnaire, error) {
	src, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	rename := map[string]string{}
	questions := make([]model.Question, len(src.Questions))
	for i, q := range src.Questions {
		questions[i] = s.editor.Duplicate(q)
		mapIDs(q, questions[i], rename)
	}

	req := model.SaveQuestionnaireRequest{
		Title:           src.Title + " (copie)",
		Questions:       questions,
		SelectedOptions: model.SelectedOptions{},
		CRData:          model.CRData{CRTexts: model.CRTexts{}, FreeTexts: model.FreeTexts{}},
		HiddenQuestions: model.HiddenQuestions{},
	}
	for oldID, newID := range rename {
		if v, ok := src.SelectedOptions[oldID]; ok {
			req.SelectedOptions[newID] = v
		}
		if v, ok := src.CRData.CRTexts[oldID]; ok {
			req.CRData.CRTexts[newID] = v
		}
		if v, ok := src.CRData.FreeTexts[oldID]; ok {
			req.CRData.FreeTexts[newID] = v
		}
		if v, ok := src.HiddenQuestions[oldID]; ok {
			req.HiddenQuestions[newID] = v
		}
	}
	return s.Create(ctx, userID, req)
}

// mapIDs records the question id pairs of two structurally identical trees.
func mapIDs(from, to model.Question, into map[string]string) {
	into[from.ID] = to.ID
	for i, o := range from.Options {
		for j, sq := range o.SubQuestions {
			mapIDs(sq, to.Options[i].SubQuestions[j], into)
		}
	}
}

// ─── Tree edits ────────────────────────────────────────────────────────

// AddQuestion appends a question to the list owned by owner.
func (s *QuestionnaireService) AddQuestion(ctx context.Context, id uuid.UUID, userID int, owner questionnaire.Path, template *model.Question) (*model.Questionnaire, model.Question, error) {
	var added model.Question
	q, err := s.mutate(ctx, id, userID, func(q *model.Questionnaire) error {
		var tpl *model.Question
		if template != nil {
			// Client-supplied ids may collide with the tree; the copy gets fresh ones.
			dup := s.editor.Duplicate(*template)
			if err := questionnaire.Check([]model.Question{dup}); err != nil {
				return err
			}
			tpl = &dup
		}
		roots, nq, err := s.editor.AddQuestion(q.Questions, owner, tpl)
		if err != nil {
			return err
		}
		q.Questions, added = roots, nq
		return nil
	})
	return q, added, err
}

// AddOption appends an option to the question at p.
func (s *QuestionnaireService) AddOption(ctx context.Context, id uuid.UUID, userID int, p questionnaire.Path) (*model.Questionnaire, model.Option, error) {
	var added model.Option
	q, err := s.mutate(ctx, id, userID, func(q *model.Questionnaire) error {
		roots, no, err := s.editor.AddOption(q.Questions, p)
		if err != nil {
			return err
		}
		q.Questions, added = roots, no
		return nil
	})
	return q, added, err
}

// DuplicateQuestion appends a copy of the question at p to its own list.
func (s *QuestionnaireService) DuplicateQuestion(ctx context.Context, id uuid.UUID, userID int, p questionnaire.Path) (*model.Questionnaire, model.Question, error) {
	var added model.Question
	q, err := s.mutate(ctx, id, userID, func(q *model.Questionnaire) error {
		roots, nq, err := s.editor.DuplicateQuestion(q.Questions, p)
		if err != nil {
			return err
		}
		q.Questions, added = roots, nq
		return nil
	})
	return q, added, err
}

// SetField decodes raw according to field and sets it on the node at p.
func (s *QuestionnaireService) SetField(ctx context.Context, id uuid.UUID, userID int, p questionnaire.Path, field questionnaire.Field, raw json.RawMessage) (*model.Questionnaire, error) {
	value, err := decodeFieldValue(field, raw)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, userID, func(q *model.Questionnaire) error {
		roots, err := questionnaire.SetField(q.Questions, p, field, value)
		if err != nil {
			return err
		}
		q.Questions = roots
		if field == questionnaire.FieldType {
			q.SelectedOptions = questionnaire.ClampSingles(roots, q.SelectedOptions)
		}
		return nil
	})
}

func decodeFieldValue(field questionnaire.Field, raw json.RawMessage) (any, error) {
	switch field {
	case questionnaire.FieldText:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: text must be a string", questionnaire.ErrInvalidValue)
		}
		return v, nil
	case questionnaire.FieldType:
		var v model.QuestionType
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: type must be a string", questionnaire.ErrInvalidValue)
		}
		return v, nil
	case questionnaire.FieldImage:
		var v *model.Image
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, fmt.Errorf("%w: image must be an object or null", questionnaire.ErrInvalidValue)
			}
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %q", questionnaire.ErrUnknownField, field)
	}
}

// DeleteNode removes the question or option at p with its subtree.
func (s *QuestionnaireService) DeleteNode(ctx context.Context, id uuid.UUID, userID int, p questionnaire.Path) (*model.Questionnaire, error) {
	return s.mutate(ctx, id, userID, func(q *model.Questionnaire) error {
		var (
			roots []model.Question
			err   error
		)
		if p.IsOption() {
			roots, err = questionnaire.DeleteOption(q.Questions, p)
		} else {
			roots, err = questionnaire.DeleteQuestion(q.Questions, p)
		}
		if err != nil {
			return err
		}
		q.Questions = roots
		return nil
	})
}

// Move relocates the node at drag to hover.
func (s *QuestionnaireService) Move(ctx context.Context, id uuid.UUID, userID int, drag, hover questionnaire.Path) (*model.Questionnaire, error) {
	return s.mutate(ctx, id, userID, func(q *model.Questionnaire) error {
		roots, err := questionnaire.Move(q.Questions, drag, hover)
		if err != nil {
			return err
		}
		q.Questions = roots
		return nil
	})
}

// ─── Answers ───────────────────────────────────────────────────────────

// ToggleOption applies an option click.
func (s *QuestionnaireService) ToggleOption(ctx context.Context, id uuid.UUID, userID int, questionID string, optionIndex int) (*model.Questionnaire, error) {
	return s.mutate(ctx, id, userID, func(q *model.Questionnaire) error {
		qn, _, ok := questionnaire.Find(q.Questions, questionID)
		if !ok {
			return ErrQuestionNotFound
		}
		if optionIndex >= len(qn.Options) {
			return fmt.Errorf("%w: option %d out of range", questionnaire.ErrInvalidValue, optionIndex)
		}
		q.SelectedOptions = questionnaire.ToggleOption(q.SelectedOptions, questionID, optionIndex, qn.Type)
		return nil
	})
}

// SetFreeText records the answer of a text or number question.
func (s *QuestionnaireService) SetFreeText(ctx context.Context, id uuid.UUID, userID int, questionID, value string) (*model.Questionnaire, error) {
	return s.mutate(ctx, id, userID, func(q *model.Questionnaire) error {
		if _, _, ok := questionnaire.Find(q.Questions, questionID); !ok {
			return ErrQuestionNotFound
		}
		q.CRData = questionnaire.SetFreeText(q.CRData, questionID, value)
		return nil
	})
}

// SetCRText records the report fragment of an option.
func (s *QuestionnaireService) SetCRText(ctx context.Context, id uuid.UUID, userID int, questionID string, optionIndex int, text string) (*model.Questionnaire, error) {
	return s.mutate(ctx, id, userID, func(q *model.Questionnaire) error {
		qn, _, ok := questionnaire.Find(q.Questions, questionID)
		if !ok {
			return ErrQuestionNotFound
		}
		if optionIndex >= len(qn.Options) {
			return fmt.Errorf("%w: option %d out of range", questionnaire.ErrInvalidValue, optionIndex)
		}
		q.CRData = questionnaire.SetCRText(q.CRData, questionID, optionIndex, text)
		return nil
	})
}

// ToggleVisibility flips the hidden flag of a question.
func (s *QuestionnaireService) ToggleVisibility(ctx context.Context, id uuid.UUID, userID int, questionID string) (*model.Questionnaire, error) {
	return s.mutate(ctx, id, userID, func(q *model.Questionnaire) error {
		if _, _, ok := questionnaire.Find(q.Questions, questionID); !ok {
			return ErrQuestionNotFound
		}
		q.HiddenQuestions = questionnaire.ToggleVisibility(q.HiddenQuestions, questionID)
		return nil
	})
}

// Autosave caches a whole answer state and queues it for persistence. The
// draft is stamped and stored under the document lock.
func (s *QuestionnaireService) Autosave(ctx context.Context, id uuid.UUID, userID int, state model.AnswerState) (time.Time, error) {
	state.Normalize()
	d := AnswerDraft{QuestionnaireID: id, UserID: userID, State: state}
	err := s.repo.Stamp(ctx, id, userID, func(at time.Time) error {
		d.SavedAt = at.UTC()
		return s.drafts.PutDraft(ctx, d)
	})
	if err != nil {
		return time.Time{}, notFound(err)
	}
	return d.SavedAt, nil
}

// ─── Reports ───────────────────────────────────────────────────────────

// Report generates the report of a stored questionnaire.
func (s *QuestionnaireService) Report(ctx context.Context, id uuid.UUID, userID int) (report.Document, error) {
	q, err := s.Get(ctx, id, userID)
	if err != nil {
		return report.Document{}, err
	}
	return report.Build(q), nil
}

// Preview generates a report from an unsaved tree and answer state.
func (s *QuestionnaireService) Preview(req model.PreviewRequest) report.Document {
	return report.Document{Text: report.Generate(report.Input{
		Questions:       req.Questions,
		SelectedOptions: req.SelectedOptions,
		CRData:          req.CRData,
		HiddenQuestions: req.HiddenQuestions,
	})}
}

// ─── Internal helpers ─────────────────────────────────────────────────

// mutate applies fn inside a locked read-modify-write. The draft is read
// under the lock: one newer than the stored document is folded in first,
// and the write then supersedes whatever draft was seen. Drafts stored
// after the lock is released are newer than the write and survive it.
func (s *QuestionnaireService) mutate(ctx context.Context, id uuid.UUID, userID int, fn func(*model.Questionnaire) error) (*model.Questionnaire, error) {
	var seen *AnswerDraft
	q, err := s.repo.Mutate(ctx, id, userID, func(q *model.Questionnaire) error {
		d, err := s.drafts.GetDraft(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("questionnaire_id", id.String()).Msg("Draft lookup failed")
			d = nil
		}
		seen = d
		if d != nil && d.UserID == userID && !d.SavedAt.Before(q.UpdatedAt) {
			q.AnswerState = d.State
			q.Normalize()
		}
		return fn(q)
	})
	if err != nil {
		return nil, notFound(err)
	}
	if seen != nil {
		if err := s.drafts.DeleteDraftAt(ctx, id, seen.SavedAt); err != nil {
			s.log.Warn().Err(err).Str("questionnaire_id", id.String()).Msg("Draft cleanup failed")
		}
	}
	return q, nil
}

func (s *QuestionnaireService) dropDraft(ctx context.Context, id uuid.UUID) {
	if err := s.drafts.DeleteDraft(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("questionnaire_id", id.String()).Msg("Draft cleanup failed")
	}
}
