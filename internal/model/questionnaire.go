package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuestionType determines how a question is answered.
type QuestionType string

const (
	QuestionTypeSingle   QuestionType = "single"
	QuestionTypeMultiple QuestionType = "multiple"
	QuestionTypeText     QuestionType = "text"
	QuestionTypeNumber   QuestionType = "number"
)

// HasOptions reports whether answers to this type are option selections.
func (t QuestionType) HasOptions() bool {
	return t == QuestionTypeSingle || t == QuestionTypeMultiple
}

// IsFreeForm reports whether answers to this type are stored in freeTexts.
func (t QuestionType) IsFreeForm() bool {
	return t == QuestionTypeText || t == QuestionTypeNumber
}

// Image is an illustration attached to a question or an option.
type Image struct {
	Src     string `json:"src"`
	Caption string `json:"caption"`
}

// Question is a node of the questionnaire tree.
type Question struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []Option     `json:"options,omitempty"`
	Image   *Image       `json:"image,omitempty"`
}

// Option is a selectable answer of a single/multiple question.
// Selecting it unlocks its sub-questions.
type Option struct {
	ID           string     `json:"id"`
	Text         string     `json:"text"`
	Image        *Image     `json:"image,omitempty"`
	SubQuestions []Question `json:"subQuestions"`
}

// SelectedOptions maps a question id to the selected option indices,
// in selection order.
type SelectedOptions map[string][]int

// CRTexts maps a question id to the report fragment of each option index.
type CRTexts map[string]map[int]string

// FreeTexts maps a question id to the raw answer of a text/number question.
type FreeTexts map[string]string

// HiddenQuestions marks questions hidden from the review display.
type HiddenQuestions map[string]bool

// CRData holds the report fragments and free-text answers of a questionnaire.
type CRData struct {
	CRTexts   CRTexts   `json:"crTexts"`
	FreeTexts FreeTexts `json:"freeTexts"`
}

// AnswerState is the part of a questionnaire that changes while it is filled in.
type AnswerState struct {
	SelectedOptions SelectedOptions `json:"selectedOptions"`
	CRData          CRData          `json:"crData"`
	HiddenQuestions HiddenQuestions `json:"hiddenQuestions"`
}

// Questionnaire is the root aggregate, persisted as a whole document.
type Questionnaire struct {
	ID        uuid.UUID  `json:"id"`
	UserID    int        `json:"user_id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	AnswerState
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize replaces nil collections with empty ones so the document
// always serializes with the same shape.
func (q *Questionnaire) Normalize() {
	if q.Questions == nil {
		q.Questions = []Question{}
	}
	q.AnswerState.Normalize()
}

// Normalize replaces nil maps with empty ones.
func (a *AnswerState) Normalize() {
	if a.SelectedOptions == nil {
		a.SelectedOptions = SelectedOptions{}
	}
	if a.CRData.CRTexts == nil {
		a.CRData.CRTexts = CRTexts{}
	}
	if a.CRData.FreeTexts == nil {
		a.CRData.FreeTexts = FreeTexts{}
	}
	if a.HiddenQuestions == nil {
		a.HiddenQuestions = HiddenQuestions{}
	}
}

// QuestionnaireSummary is the list view of a questionnaire.
type QuestionnaireSummary struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	QuestionCount int       `json:"question_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ─── Requests ──────────────────────────────────────────────────────────

// SaveQuestionnaireRequest is the payload for creating or saving a whole questionnaire.
type SaveQuestionnaireRequest struct {
	Title           string          `json:"title" binding:"max=255"`
	Questions       []Question      `json:"questions"`
	SelectedOptions SelectedOptions `json:"selectedOptions"`
	CRData          CRData          `json:"crData"`
	HiddenQuestions HiddenQuestions `json:"hiddenQuestions"`
}

// AddQuestionRequest adds a question under the list addressed by Path.
// Template, when set, is inserted as-is (used for duplicates).
type AddQuestionRequest struct {
	Path     json.RawMessage `json:"path"`
	Template *Question       `json:"template"`
}

// DuplicateQuestionRequest appends a copy of the question at Path to its own list.
type DuplicateQuestionRequest struct {
	Path json.RawMessage `json:"path" binding:"required"`
}

// PathRequest addresses a single node.
type PathRequest struct {
	Path json.RawMessage `json:"path" binding:"required"`
}

// SetFieldRequest sets a field of the node addressed by Path.
type SetFieldRequest struct {
	Path  json.RawMessage `json:"path" binding:"required"`
	Field string          `json:"field" binding:"required,oneof=text type image"`
	Value json.RawMessage `json:"value"`
}

// MoveRequest relocates the node at DragPath to HoverPath.
type MoveRequest struct {
	DragPath  json.RawMessage `json:"dragPath" binding:"required"`
	HoverPath json.RawMessage `json:"hoverPath" binding:"required"`
}

// ToggleOptionRequest mirrors the onOptionChange callback.
type ToggleOptionRequest struct {
	QuestionID  string `json:"questionId" binding:"required"`
	OptionIndex *int   `json:"optionIndex" binding:"required,min=0"`
}

// FreeTextRequest mirrors the onFreeTextChange callback.
type FreeTextRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	Value      string `json:"value"`
}

// CRTextRequest sets the report fragment of one option.
type CRTextRequest struct {
	QuestionID  string `json:"questionId" binding:"required"`
	OptionIndex *int   `json:"optionIndex" binding:"required,min=0"`
	Text        string `json:"text"`
}

// VisibilityRequest mirrors the onToggleVisibility callback.
type VisibilityRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
}

// PreviewRequest generates a report without touching storage.
type PreviewRequest struct {
	Questions []Question `json:"questions"`
	AnswerState
}
