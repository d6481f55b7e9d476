// Package questionnaire implements the questionnaire tree and its
// path-addressed edits.
//
// The tree is treated as immutable: every edit copies the nodes along the
// edited path and shares all other nodes with the previous tree, which stays
// valid and unchanged. Callers must never modify a tree in place.
package questionnaire

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/radcr/radcr-backend/internal/model"
)

// IDGenerator returns a fresh node id on every call.
type IDGenerator func() string

// NewID returns a time-ordered UUIDv7 string.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Field names a settable attribute of a question or option.
type Field string

const (
	FieldText  Field = "text"
	FieldType  Field = "type"
	FieldImage Field = "image"
)

// Editor applies structural edits to question trees.
type Editor struct {
	newID IDGenerator
}

// NewEditor creates an Editor. A nil generator defaults to NewID.
func NewEditor(newID IDGenerator) *Editor {
	if newID == nil {
		newID = NewID
	}
	return &Editor{newID: newID}
}

// NewQuestion returns an empty single-choice question with a fresh id.
func (e *Editor) NewQuestion() model.Question {
	return model.Question{
		ID:      e.newID(),
		Type:    model.QuestionTypeSingle,
		Options: []model.Option{},
	}
}

// NewOption returns an empty option with a fresh id.
func (e *Editor) NewOption() model.Option {
	return model.Option{
		ID:           e.newID(),
		SubQuestions: []model.Question{},
	}
}

// AddQuestion appends a question to the list owned by owner: the root list
// for an empty path, otherwise the sub-questions of the option at owner.
// A nil template appends a fresh question; otherwise the template is
// inserted as given.
func (e *Editor) AddQuestion(roots []model.Question, owner Path, template *model.Question) ([]model.Question, model.Question, error) {
	if err := owner.Validate(); err != nil {
		return roots, model.Question{}, err
	}
	if len(owner) > 0 && !owner.IsOption() {
		return roots, model.Question{}, ErrPathNotFound
	}

	q := e.NewQuestion()
	if template != nil {
		q = *template
	}

	out, err := updateQuestionList(roots, owner, func(list []model.Question) ([]model.Question, error) {
		return appended(list, q), nil
	})
	if err != nil {
		return roots, model.Question{}, err
	}
	return out, q, nil
}

// AddOption appends a fresh option to the question at p.
func (e *Editor) AddOption(roots []model.Question, p Path) ([]model.Question, model.Option, error) {
	if err := requireQuestion(p); err != nil {
		return roots, model.Option{}, err
	}

	o := e.NewOption()
	out, err := updateOptionList(roots, p, func(list []model.Option) ([]model.Option, error) {
		return appended(list, o), nil
	})
	if err != nil {
		return roots, model.Option{}, err
	}
	return out, o, nil
}

// Duplicate deep-copies q, giving every question and option of the copy a
// fresh id. q is not modified.
func (e *Editor) Duplicate(q model.Question) model.Question {
	out := q
	out.ID = e.newID()
	if q.Image != nil {
		img := *q.Image
		out.Image = &img
	}
	if q.Options != nil {
		out.Options = make([]model.Option, len(q.Options))
		for i, o := range q.Options {
			out.Options[i] = e.duplicateOption(o)
		}
	}
	return out
}

func (e *Editor) duplicateOption(o model.Option) model.Option {
	out := o
	out.ID = e.newID()
	if o.Image != nil {
		img := *o.Image
		out.Image = &img
	}
	if o.SubQuestions != nil {
		out.SubQuestions = make([]model.Question, len(o.SubQuestions))
		for i, sq := range o.SubQuestions {
			out.SubQuestions[i] = e.Duplicate(sq)
		}
	}
	return out
}

// DuplicateQuestion appends a duplicate of the question at p to the list holding it.
func (e *Editor) DuplicateQuestion(roots []model.Question, p Path) ([]model.Question, model.Question, error) {
	src, err := QuestionAt(roots, p)
	if err != nil {
		return roots, model.Question{}, err
	}
	dup := e.Duplicate(src)
	return e.AddQuestion(roots, p.Parent(), &dup)
}

// QuestionAt resolves p to a question.
func QuestionAt(roots []model.Question, p Path) (model.Question, error) {
	if err := requireQuestion(p); err != nil {
		return model.Question{}, err
	}
	q, _, err := locate(roots, p)
	return q, err
}

// OptionAt resolves p to an option.
func OptionAt(roots []model.Question, p Path) (model.Option, error) {
	if err := requireOption(p); err != nil {
		return model.Option{}, err
	}
	_, o, err := locate(roots, p)
	return o, err
}

// UpdateQuestion replaces the question at p with fn(current). fn receives a
// copy whose slices are shared with the old tree; it must not modify them
// in place.
func UpdateQuestion(roots []model.Question, p Path, fn func(model.Question) model.Question) ([]model.Question, error) {
	if err := requireQuestion(p); err != nil {
		return roots, err
	}
	out, err := updateQuestionAt(roots, p, func(q model.Question) (model.Question, error) {
		return fn(q), nil
	})
	if err != nil {
		return roots, err
	}
	return out, nil
}

// UpdateOption replaces the option at p with fn(current), under the same
// rules as UpdateQuestion.
func UpdateOption(roots []model.Question, p Path, fn func(model.Option) model.Option) ([]model.Question, error) {
	if err := requireOption(p); err != nil {
		return roots, err
	}
	out, err := updateOptionAt(roots, p, func(o model.Option) (model.Option, error) {
		return fn(o), nil
	})
	if err != nil {
		return roots, err
	}
	return out, nil
}

// SetField sets one field of the node at p. Questions accept text (string),
// type (model.QuestionType) and image (*model.Image); options accept text and image.
func SetField(roots []model.Question, p Path, field Field, value any) ([]model.Question, error) {
	if err := p.Validate(); err != nil {
		return roots, err
	}

	switch {
	case p.IsQuestion():
		var set func(*model.Question)
		switch field {
		case FieldText:
			v, ok := value.(string)
			if !ok {
				return roots, fmt.Errorf("%w: text must be a string", ErrInvalidValue)
			}
			set = func(q *model.Question) { q.Text = v }
		case FieldType:
			v, ok := value.(model.QuestionType)
			if !ok || !validType(v) {
				return roots, fmt.Errorf("%w: unsupported question type %v", ErrInvalidValue, value)
			}
			set = func(q *model.Question) { q.Type = v }
		case FieldImage:
			v, ok := value.(*model.Image)
			if !ok {
				return roots, fmt.Errorf("%w: image must be an image", ErrInvalidValue)
			}
			set = func(q *model.Question) { q.Image = v }
		default:
			return roots, fmt.Errorf("%w: %q on question", ErrUnknownField, field)
		}
		return UpdateQuestion(roots, p, func(q model.Question) model.Question {
			set(&q)
			return q
		})

	case p.IsOption():
		var set func(*model.Option)
		switch field {
		case FieldText:
			v, ok := value.(string)
			if !ok {
				return roots, fmt.Errorf("%w: text must be a string", ErrInvalidValue)
			}
			set = func(o *model.Option) { o.Text = v }
		case FieldImage:
			v, ok := value.(*model.Image)
			if !ok {
				return roots, fmt.Errorf("%w: image must be an image", ErrInvalidValue)
			}
			set = func(o *model.Option) { o.Image = v }
		default:
			return roots, fmt.Errorf("%w: %q on option", ErrUnknownField, field)
		}
		return UpdateOption(roots, p, func(o model.Option) model.Option {
			set(&o)
			return o
		})
	}
	return roots, ErrPathNotFound
}

// DeleteQuestion removes the question at p together with its subtree.
func DeleteQuestion(roots []model.Question, p Path) ([]model.Question, error) {
	if err := requireQuestion(p); err != nil {
		return roots, err
	}
	idx := p.Last().Index
	out, err := updateQuestionList(roots, p.Parent(), func(list []model.Question) ([]model.Question, error) {
		if idx >= len(list) {
			return nil, ErrPathNotFound
		}
		return removed(list, idx), nil
	})
	if err != nil {
		return roots, err
	}
	return out, nil
}

// DeleteOption removes the option at p together with its sub-questions.
func DeleteOption(roots []model.Question, p Path) ([]model.Question, error) {
	if err := requireOption(p); err != nil {
		return roots, err
	}
	idx := p.Last().Index
	out, err := updateOptionList(roots, p.Parent(), func(list []model.Option) ([]model.Option, error) {
		if idx >= len(list) {
			return nil, ErrPathNotFound
		}
		return removed(list, idx), nil
	})
	if err != nil {
		return roots, err
	}
	return out, nil
}

// Move relocates the node at drag so that it ends up at hover, by removing
// it and inserting it at hover's index in hover's list. Both paths must
// address nodes of the same kind at the same nesting class (root questions
// with root questions, nested questions with nested questions, options with
// options). Paths of siblings after drag shift once the node is removed, so
// callers must re-resolve any cached paths after a move.
func Move(roots []model.Question, drag, hover Path) ([]model.Question, error) {
	if err := drag.Validate(); err != nil {
		return roots, err
	}
	if err := hover.Validate(); err != nil {
		return roots, err
	}
	if len(drag) == 0 || len(hover) == 0 {
		return roots, ErrPathNotFound
	}
	if drag.Equal(hover) {
		return roots, nil
	}
	if drag.IsOption() != hover.IsOption() || drag.Nested() != hover.Nested() {
		return roots, ErrInvalidMove
	}
	if hover.HasPrefix(drag) {
		return roots, ErrInvalidMove
	}
	hover = afterRemoval(hover, drag)

	if drag.IsQuestion() {
		q, err := QuestionAt(roots, drag)
		if err != nil {
			return roots, err
		}
		out, err := DeleteQuestion(roots, drag)
		if err != nil {
			return roots, err
		}
		idx := hover.Last().Index
		out, err = updateQuestionList(out, hover.Parent(), func(list []model.Question) ([]model.Question, error) {
			if idx > len(list) {
				return nil, ErrPathNotFound
			}
			return inserted(list, idx, q), nil
		})
		if err != nil {
			return roots, err
		}
		return out, nil
	}

	o, err := OptionAt(roots, drag)
	if err != nil {
		return roots, err
	}
	out, err := DeleteOption(roots, drag)
	if err != nil {
		return roots, err
	}
	idx := hover.Last().Index
	out, err = updateOptionList(out, hover.Parent(), func(list []model.Option) ([]model.Option, error) {
		if idx > len(list) {
			return nil, ErrPathNotFound
		}
		return inserted(list, idx, o), nil
	})
	if err != nil {
		return roots, err
	}
	return out, nil
}

// ─── Internal helpers ─────────────────────────────────────────────────

// afterRemoval rebases hover onto the tree left once drag is removed. When
// hover descends through a later sibling of drag, that step moves back by one.
func afterRemoval(hover, drag Path) Path {
	depth := len(drag) - 1
	if len(hover) <= len(drag) || !hover.HasPrefix(drag.Parent()) {
		return hover
	}
	if hover[depth].Index <= drag.Last().Index {
		return hover
	}
	out := slices.Clone(hover)
	out[depth].Index--
	return out
}

func validType(t model.QuestionType) bool {
	return t.HasOptions() || t.IsFreeForm()
}

func requireQuestion(p Path) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !p.IsQuestion() {
		return ErrPathNotFound
	}
	return nil
}

func requireOption(p Path) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !p.IsOption() {
		return ErrPathNotFound
	}
	return nil
}

// locate walks p from the roots. It returns the last question and option
// visited on the way.
func locate(roots []model.Question, p Path) (model.Question, model.Option, error) {
	var (
		q    model.Question
		o    model.Option
		list = roots
	)
	for _, s := range p {
		if s.In.holdsQuestions() {
			if s.Index >= len(list) {
				return model.Question{}, model.Option{}, ErrPathNotFound
			}
			q = list[s.Index]
			continue
		}
		if s.Index >= len(q.Options) {
			return model.Question{}, model.Option{}, ErrPathNotFound
		}
		o = q.Options[s.Index]
		list = o.SubQuestions
	}
	return q, o, nil
}

// updateQuestionList rebuilds the tree with fn applied to the question list
// owned by owner (the root list when owner is empty).
func updateQuestionList(roots []model.Question, owner Path, fn func([]model.Question) ([]model.Question, error)) ([]model.Question, error) {
	if len(owner) == 0 {
		return fn(roots)
	}
	return updateOptionAt(roots, owner, func(o model.Option) (model.Option, error) {
		subs, err := fn(o.SubQuestions)
		if err != nil {
			return o, err
		}
		o.SubQuestions = subs
		return o, nil
	})
}

// updateOptionList rebuilds the tree with fn applied to the options of the
// question at owner.
func updateOptionList(roots []model.Question, owner Path, fn func([]model.Option) ([]model.Option, error)) ([]model.Question, error) {
	return updateQuestionAt(roots, owner, func(q model.Question) (model.Question, error) {
		opts, err := fn(q.Options)
		if err != nil {
			return q, err
		}
		q.Options = opts
		return q, nil
	})
}

func updateQuestionAt(roots []model.Question, p Path, fn func(model.Question) (model.Question, error)) ([]model.Question, error) {
	idx := p.Last().Index
	return updateQuestionList(roots, p.Parent(), func(list []model.Question) ([]model.Question, error) {
		if idx >= len(list) {
			return nil, ErrPathNotFound
		}
		q, err := fn(list[idx])
		if err != nil {
			return nil, err
		}
		out := slices.Clone(list)
		out[idx] = q
		return out, nil
	})
}

func updateOptionAt(roots []model.Question, p Path, fn func(model.Option) (model.Option, error)) ([]model.Question, error) {
	idx := p.Last().Index
	return updateOptionList(roots, p.Parent(), func(list []model.Option) ([]model.Option, error) {
		if idx >= len(list) {
			return nil, ErrPathNotFound
		}
		o, err := fn(list[idx])
		if err != nil {
			return nil, err
		}
		out := slices.Clone(list)
		out[idx] = o
		return out, nil
	})
}

// appended, inserted and removed never write into the backing array of
// list, which may be shared with older trees.
func appended[T any](list []T, v T) []T {
	return append(slices.Clip(list), v)
}

func inserted[T any](list []T, i int, v T) []T {
	return slices.Insert(slices.Clip(list), i, v)
}

func removed[T any](list []T, i int) []T {
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}
