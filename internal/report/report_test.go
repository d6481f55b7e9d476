package report

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/radcr/radcr-backend/internal/model"
)

func opt(text string, subs ...model.Question) model.Option {
	return model.Option{ID: "o-" + text, Text: text, SubQuestions: subs}
}

func TestGenerate_Technique(t *testing.T) {
	in := Input{
		Questions: []model.Question{{
			ID:      "q1",
			Text:    "TECHNIQUE",
			Type:    model.QuestionTypeMultiple,
			Options: []model.Option{opt("Sans injection"), opt("Avec injection")},
		}},
		SelectedOptions: model.SelectedOptions{"q1": {0, 1}},
	}

	got := Generate(in)
	want := "<strong>TECHNIQUE :</strong>\n\nSans injection, Avec injection."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGenerate_TechniqueWithoutSelectionIsSkipped(t *testing.T) {
	in := Input{
		Questions: []model.Question{{
			ID: "q1", Text: "TECHNIQUE", Type: model.QuestionTypeSingle,
			Options: []model.Option{opt("Sans injection")},
		}},
	}
	if got := Generate(in); got != "" {
		t.Fatalf("expected empty report, got %q", got)
	}
}

func TestGenerate_Indication(t *testing.T) {
	in := Input{
		Questions: []model.Question{{ID: "q2", Text: "INDICATION", Type: model.QuestionTypeText}},
		CRData:    model.CRData{FreeTexts: model.FreeTexts{"q2": "Douleur lombaire"}},
	}

	got := Generate(in)
	want := "<strong>INDICATION :</strong>\n\nDouleur lombaire"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGenerate_FreeTexts(t *testing.T) {
	tests := []struct {
		name   string
		q      model.Question
		answer string
		want   string
	}{
		{name: "conclusion header", q: model.Question{ID: "q", Text: "CONCLUSION", Type: model.QuestionTypeText}, answer: "Examen normal.", want: "<strong>CONCLUSION :</strong>\n\nExamen normal."},
		{name: "plain text", q: model.Question{ID: "q", Text: "Remarque", Type: model.QuestionTypeText}, answer: "  Pas de lésion.  ", want: "Pas de lésion."},
		{name: "number", q: model.Question{ID: "q", Text: "Taille (mm)", Type: model.QuestionTypeNumber}, answer: "42", want: "42"},
		{name: "case sensitive header", q: model.Question{ID: "q", Text: "Indication", Type: model.QuestionTypeText}, answer: "Bilan", want: "Bilan"},
		{name: "empty answer", q: model.Question{ID: "q", Text: "INDICATION", Type: model.QuestionTypeText}, answer: "", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Generate(Input{
				Questions: []model.Question{tc.q},
				CRData:    model.CRData{FreeTexts: model.FreeTexts{"q": tc.answer}},
			})
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGenerate_SubQuestionsFollowParent(t *testing.T) {
	child := model.Question{
		ID: "child", Text: "Taille", Type: model.QuestionTypeSingle,
		Options: []model.Option{opt("petite"), opt("grande")},
	}
	in := Input{
		Questions: []model.Question{
			{
				ID: "parent", Text: "Lésion", Type: model.QuestionTypeSingle,
				Options: []model.Option{opt("présente", child), opt("absente")},
			},
			{
				ID: "next", Text: "Rate", Type: model.QuestionTypeSingle,
				Options: []model.Option{opt("normale")},
			},
		},
		SelectedOptions: model.SelectedOptions{"parent": {0}, "child": {1}, "next": {0}},
		CRData: model.CRData{CRTexts: model.CRTexts{
			"parent": {0: "Lésion hépatique."},
			"child":  {1: "Elle mesure plus de 3 cm."},
			"next":   {0: "Rate normale."},
		}},
	}

	got := Generate(in)
	want := "Lésion hépatique.\nElle mesure plus de 3 cm.\nRate normale."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGenerate_SubQuestionsOfUnselectedOptionsAreSkipped(t *testing.T) {
	child := model.Question{ID: "child", Type: model.QuestionTypeText}
	in := Input{
		Questions: []model.Question{{
			ID: "parent", Type: model.QuestionTypeSingle,
			Options: []model.Option{opt("a", child), opt("b")},
		}},
		SelectedOptions: model.SelectedOptions{"parent": {1}},
		CRData: model.CRData{
			CRTexts:   model.CRTexts{"parent": {1: "Option b."}},
			FreeTexts: model.FreeTexts{"child": "ne doit pas apparaître"},
		},
	}

	if got := Generate(in); got != "Option b." {
		t.Fatalf("got %q", got)
	}
}

func TestGenerate_SubQuestionsVisitedWithoutParentFragment(t *testing.T) {
	child := model.Question{ID: "child", Type: model.QuestionTypeText}
	in := Input{
		Questions: []model.Question{{
			ID: "parent", Type: model.QuestionTypeMultiple,
			Options: []model.Option{opt("a", child)},
		}},
		SelectedOptions: model.SelectedOptions{"parent": {0}},
		CRData:          model.CRData{FreeTexts: model.FreeTexts{"child": "Détail."}},
	}

	if got := Generate(in); got != "Détail." {
		t.Fatalf("got %q", got)
	}
}

func TestGenerate_SelectionOrder(t *testing.T) {
	in := Input{
		Questions: []model.Question{{
			ID: "q", Type: model.QuestionTypeMultiple,
			Options: []model.Option{opt("a"), opt("b"), opt("c")},
		}},
		SelectedOptions: model.SelectedOptions{"q": {2, 0}},
		CRData:          model.CRData{CRTexts: model.CRTexts{"q": {0: "A.", 1: "B.", 2: "C."}}},
	}

	if got := Generate(in); got != "C.\nA." {
		t.Fatalf("got %q, want selection order", got)
	}
}

func TestGenerate_HeaderLinesGetBlankLineBefore(t *testing.T) {
	in := Input{
		Questions: []model.Question{{
			ID: "q", Type: model.QuestionTypeMultiple,
			Options: []model.Option{opt("a"), opt("b"), opt("c")},
		}},
		SelectedOptions: model.SelectedOptions{"q": {0, 1, 2}},
		CRData: model.CRData{CRTexts: model.CRTexts{"q": {
			0: "Foie normal.",
			1: "<u>Reins</u> : normaux.",
			2: "<strong>Rate</strong> normale.",
		}}},
	}

	got := Generate(in)
	want := "Foie normal.\n\n<u>Reins</u> : normaux.\n\n<strong>Rate</strong> normale."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGenerate_SectionsCombined(t *testing.T) {
	in := Input{
		Questions: []model.Question{
			{ID: "ind", Text: "INDICATION", Type: model.QuestionTypeText},
			{ID: "tech", Text: "TECHNIQUE", Type: model.QuestionTypeMultiple, Options: []model.Option{opt("Sans injection")}},
			{ID: "concl", Text: "CONCLUSION", Type: model.QuestionTypeText},
		},
		SelectedOptions: model.SelectedOptions{"tech": {0}},
		CRData: model.CRData{FreeTexts: model.FreeTexts{
			"ind":   "Douleur",
			"concl": "Normal",
		}},
	}

	got := Generate(in)
	want := "<strong>INDICATION :</strong>\n\nDouleur\n\n<strong>TECHNIQUE :</strong>\n\nSans injection.\n\n<strong>CONCLUSION :</strong>\n\nNormal"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGenerate_MissingOptionsAndBadIndices(t *testing.T) {
	in := Input{
		Questions: []model.Question{
			{ID: "noopts", Type: model.QuestionTypeSingle},
			{ID: "q", Type: model.QuestionTypeMultiple, Options: []model.Option{opt("a")}},
			{ID: "tech", Text: "TECHNIQUE", Type: model.QuestionTypeMultiple},
		},
		SelectedOptions: model.SelectedOptions{"noopts": {0}, "q": {5, -1, 0}, "tech": {3}},
		CRData: model.CRData{CRTexts: model.CRTexts{
			"noopts": {0: "jamais"},
			"q":      {0: "Seul.", 5: "hors limite"},
		}},
	}

	if got := Generate(in); got != "Seul." {
		t.Fatalf("got %q", got)
	}
}

func TestGenerate_Empty(t *testing.T) {
	if got := Generate(Input{Questions: []model.Question{}}); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := Generate(Input{}); got != "" {
		t.Fatalf("expected empty string for nil input, got %q", got)
	}
}

func sampleInput() Input {
	child := model.Question{
		ID: "child", Text: "Contours", Type: model.QuestionTypeMultiple,
		Options: []model.Option{opt("réguliers"), opt("irréguliers")},
	}
	return Input{
		Questions: []model.Question{
			{ID: "ind", Text: "INDICATION", Type: model.QuestionTypeText},
			{ID: "lesion", Text: "Lésion", Type: model.QuestionTypeSingle, Options: []model.Option{opt("oui", child), opt("non")}},
		},
		SelectedOptions: model.SelectedOptions{"lesion": {0}, "child": {1, 0}},
		CRData: model.CRData{
			CRTexts: model.CRTexts{
				"lesion": {0: "<strong>Lésion</strong> visible."},
				"child":  {0: "Contours réguliers.", 1: "Contours irréguliers."},
			},
			FreeTexts: model.FreeTexts{"ind": "Bilan"},
		},
	}
}

func cloneInput(t *testing.T, in Input) Input {
	t.Helper()
	raw, err := json.Marshal(struct {
		Q []model.Question
		S model.SelectedOptions
		C model.CRData
		H model.HiddenQuestions
	}{in.Questions, in.SelectedOptions, in.CRData, in.HiddenQuestions})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out struct {
		Q []model.Question
		S model.SelectedOptions
		C model.CRData
		H model.HiddenQuestions
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return Input{Questions: out.Q, SelectedOptions: out.S, CRData: out.C, HiddenQuestions: out.H}
}

func TestGenerate_DeterministicAcrossClones(t *testing.T) {
	in := sampleInput()
	first := Generate(in)
	for i := 0; i < 20; i++ {
		if got := Generate(cloneInput(t, in)); got != first {
			t.Fatalf("run %d differs:\n%q\n%q", i, got, first)
		}
	}
}

func TestGenerate_HiddenQuestionsStayInReport(t *testing.T) {
	in := sampleInput()
	visible := Generate(in)

	in.HiddenQuestions = model.HiddenQuestions{"lesion": true, "child": true, "ind": true}
	if got := Generate(in); got != visible {
		t.Fatalf("hiding changed the report:\n%q\n%q", got, visible)
	}
}

func TestBuild_ReturnsTitle(t *testing.T) {
	in := sampleInput()
	q := &model.Questionnaire{
		Title:     "IRM hépatique",
		Questions: in.Questions,
		AnswerState: model.AnswerState{
			SelectedOptions: in.SelectedOptions,
			CRData:          in.CRData,
		},
	}

	doc := Build(q)
	if doc.Title != "IRM hépatique" {
		t.Fatalf("title = %q", doc.Title)
	}
	if doc.Text != Generate(in) {
		t.Fatalf("text mismatch: %q", doc.Text)
	}
}

func TestClipboardHTML(t *testing.T) {
	got := ClipboardHTML("<strong>INDICATION :</strong>\n\nDouleur\n<u>Foie</u>")
	want := "<p><br><strong>INDICATION :</strong></p><p></p><p>Douleur</p><p><br><u>Foie</u></p>"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSequencer_DropsStaleResults(t *testing.T) {
	var s Sequencer
	if _, _, ok := s.Latest(); ok {
		t.Fatalf("expected no result yet")
	}
	if !s.Offer(0, "zero") {
		t.Fatalf("first offer must be accepted")
	}
	if !s.Offer(2, "two") {
		t.Fatalf("newer offer must be accepted")
	}
	if s.Offer(1, "one") {
		t.Fatalf("stale offer must be dropped")
	}
	if s.Offer(2, "two again") {
		t.Fatalf("duplicate sequence must be dropped")
	}
	seq, text, ok := s.Latest()
	if !ok || seq != 2 || text != "two" {
		t.Fatalf("latest = %d %q %v", seq, text, ok)
	}
}

func TestSequencer_ConcurrentOffersKeepHighest(t *testing.T) {
	var s Sequencer
	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			s.Offer(seq, "r")
		}(uint64(i))
	}
	wg.Wait()

	if seq, _, _ := s.Latest(); seq != 100 {
		t.Fatalf("latest seq = %d, want 100", seq)
	}
}
