// Package report assembles the textual report (compte-rendu) of a
// questionnaire from its answers.
//
// The output uses literal <strong> and <u> tokens for section headers.
// Downstream exporters recognise headers by those line prefixes, so the
// markup must stay byte-exact.
package report

import (
	"strings"

	"github.com/radcr/radcr-backend/internal/model"
)

// Question texts that trigger a section header.
const (
	SectionIndication = "INDICATION"
	SectionConclusion = "CONCLUSION"
	SectionTechnique  = "TECHNIQUE"
)

// Input is everything the report depends on.
type Input struct {
	Questions       []model.Question
	SelectedOptions model.SelectedOptions
	CRData          model.CRData
	// HiddenQuestions only affects interactive display. Hidden questions
	// are still part of the report.
	HiddenQuestions model.HiddenQuestions
}

// Document is a generated report together with the questionnaire title.
type Document struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Build generates the report of a stored questionnaire.
func Build(q *model.Questionnaire) Document {
	return Document{
		Title: q.Title,
		Text: Generate(Input{
			Questions:       q.Questions,
			SelectedOptions: q.SelectedOptions,
			CRData:          q.CRData,
			HiddenQuestions: q.HiddenQuestions,
		}),
	}
}

// Generate walks the questions depth-first and returns the report text.
// It is pure: equal inputs always yield the same bytes.
func Generate(in Input) string {
	var w writer
	w.questions(in, in.Questions)
	return w.String()
}

type writer struct {
	lines []string
}

// add appends a trimmed line. Headers and title lines are preceded by a
// blank line.
func (w *writer) add(content string, title bool) {
	if title || isHeader(content) {
		w.lines = append(w.lines, "")
	}
	w.lines = append(w.lines, strings.TrimSpace(content))
}

func (w *writer) section(name, body string) {
	w.add("<strong>"+name+" :</strong>", true)
	w.lines = append(w.lines, "")
	w.add(body, false)
}

func (w *writer) String() string {
	return strings.TrimSpace(strings.Join(w.lines, "\n"))
}

func (w *writer) questions(in Input, list []model.Question) {
	for _, q := range list {
		switch {
		case q.Type.IsFreeForm():
			answer := in.CRData.FreeTexts[q.ID]
			if answer == "" {
				continue
			}
			if q.Text == SectionIndication || q.Text == SectionConclusion {
				w.section(q.Text, answer)
			} else {
				w.add(answer, false)
			}

		case q.Text == SectionTechnique:
			var picked []string
			for _, idx := range in.SelectedOptions[q.ID] {
				if idx < 0 || idx >= len(q.Options) {
					continue
				}
				if t := q.Options[idx].Text; t != "" {
					picked = append(picked, t)
				}
			}
			if len(picked) > 0 {
				w.section(SectionTechnique, strings.Join(picked, ", ")+".")
			}

		default:
			fragments := in.CRData.CRTexts[q.ID]
			for _, idx := range in.SelectedOptions[q.ID] {
				if idx < 0 || idx >= len(q.Options) {
					continue
				}
				if text := fragments[idx]; text != "" {
					w.add(text, false)
				}
				w.questions(in, q.Options[idx].SubQuestions)
			}
		}
	}
}

func isHeader(line string) bool {
	return strings.HasPrefix(line, "<strong>") || strings.HasPrefix(line, "<u>")
}
