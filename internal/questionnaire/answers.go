package questionnaire

import (
	"maps"
	"slices"

	"github.com/radcr/radcr-backend/internal/model"
)

// ToggleOption applies an option click to the selection of a question.
// A single question keeps only the clicked index; a multiple question drops
// the index if it was selected and appends it otherwise. Other types leave
// the selection unchanged. The input map is not modified.
func ToggleOption(selected model.SelectedOptions, questionID string, optionIndex int, qt model.QuestionType) model.SelectedOptions {
	if !qt.HasOptions() {
		return selected
	}

	out := maps.Clone(selected)
	if out == nil {
		out = model.SelectedOptions{}
	}

	current := selected[questionID]
	switch qt {
	case model.QuestionTypeSingle:
		out[questionID] = []int{optionIndex}
	case model.QuestionTypeMultiple:
		if i := slices.Index(current, optionIndex); i >= 0 {
			out[questionID] = removed(current, i)
		} else {
			out[questionID] = appended(current, optionIndex)
		}
	}
	return out
}

// SetFreeText records the raw answer of a text or number question.
func SetFreeText(cr model.CRData, questionID, value string) model.CRData {
	out := cr
	out.FreeTexts = maps.Clone(cr.FreeTexts)
	if out.FreeTexts == nil {
		out.FreeTexts = model.FreeTexts{}
	}
	out.FreeTexts[questionID] = value
	return out
}

// SetCRText records the report fragment emitted when an option is selected.
func SetCRText(cr model.CRData, questionID string, optionIndex int, text string) model.CRData {
	out := cr
	out.CRTexts = maps.Clone(cr.CRTexts)
	if out.CRTexts == nil {
		out.CRTexts = model.CRTexts{}
	}
	byOption := maps.Clone(cr.CRTexts[questionID])
	if byOption == nil {
		byOption = map[int]string{}
	}
	byOption[optionIndex] = text
	out.CRTexts[questionID] = byOption
	return out
}

// ToggleVisibility flips the hidden flag of a question.
func ToggleVisibility(hidden model.HiddenQuestions, questionID string) model.HiddenQuestions {
	out := maps.Clone(hidden)
	if out == nil {
		out = model.HiddenQuestions{}
	}
	out[questionID] = !hidden[questionID]
	return out
}

// ClampSingles trims the selection of every single question of the tree to
// at most one index, keeping the most recent one.
func ClampSingles(roots []model.Question, selected model.SelectedOptions) model.SelectedOptions {
	out := selected
	cloned := false
	Walk(roots, func(q model.Question, _ Path) bool {
		idx := selected[q.ID]
		if q.Type != model.QuestionTypeSingle || len(idx) <= 1 {
			return true
		}
		if !cloned {
			out = maps.Clone(selected)
			cloned = true
		}
		out[q.ID] = []int{idx[len(idx)-1]}
		return true
	})
	return out
}
