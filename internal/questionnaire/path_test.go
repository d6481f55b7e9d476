package questionnaire

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestPath_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		path Path
		wire string
	}{
		{name: "root question", path: Q(0), wire: `[0]`},
		{name: "option", path: Q(1).Option(2), wire: `[1,"options",2]`},
		{name: "sub question", path: Q(0).Option(2).Sub(1), wire: `[0,"options",2,"subQuestions",1]`},
		{name: "deep option", path: Q(0).Option(0).Sub(3).Option(4), wire: `[0,"options",0,"subQuestions",3,"options",4]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(tc.path)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(raw) != tc.wire {
				t.Fatalf("expected %s, got %s", tc.wire, raw)
			}

			got, err := ParsePath(json.RawMessage(tc.wire))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !got.Equal(tc.path) {
				t.Fatalf("expected %v, got %v", tc.path, got)
			}
		})
	}
}

func TestParsePath_Rejects(t *testing.T) {
	tests := []struct {
		name string
		wire string
	}{
		{name: "empty", wire: `[]`},
		{name: "null", wire: `null`},
		{name: "not an array", wire: `{"a":1}`},
		{name: "leading marker", wire: `["options",0]`},
		{name: "missing marker", wire: `[0,1]`},
		{name: "double marker", wire: `[0,"options","options",1]`},
		{name: "wrong alternation", wire: `[0,"subQuestions",1]`},
		{name: "unknown marker", wire: `[0,"children",1]`},
		{name: "negative index", wire: `[0,"options",-1]`},
		{name: "trailing marker", wire: `[0,"options"]`},
		{name: "bool element", wire: `[true]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePath(json.RawMessage(tc.wire))
			if !errors.Is(err, ErrMalformedPath) {
				t.Fatalf("expected ErrMalformedPath, got %v", err)
			}
		})
	}
}

func TestParseListOwner(t *testing.T) {
	tests := []struct {
		name    string
		wire    string
		want    Path
		wantErr bool
	}{
		{name: "root", wire: `[]`, want: Path{}},
		{name: "null root", wire: `null`, want: Path{}},
		{name: "option", wire: `[0,"options",1]`, want: Q(0).Option(1)},
		{name: "option with trailing marker", wire: `[0,"options",1,"subQuestions"]`, want: Q(0).Option(1)},
		{name: "question owner", wire: `[0]`, wantErr: true},
		{name: "options marker", wire: `[0,"options"]`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseListOwner(json.RawMessage(tc.wire))
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedPath) {
					t.Fatalf("expected ErrMalformedPath, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestPath_Helpers(t *testing.T) {
	p := Q(0).Option(2).Sub(1)

	if p.String() != "0.options.2.subQuestions.1" {
		t.Fatalf("unexpected string %q", p.String())
	}
	if !p.IsQuestion() || p.IsOption() {
		t.Fatalf("expected question path")
	}
	if !p.Nested() || Q(3).Nested() {
		t.Fatalf("nested detection wrong")
	}
	if !p.Parent().Equal(Q(0).Option(2)) {
		t.Fatalf("unexpected parent %v", p.Parent())
	}
	if !p.HasPrefix(Q(0)) || p.HasPrefix(Q(1)) {
		t.Fatalf("prefix detection wrong")
	}

	// Extending a parent must not clobber the child path.
	parent := p.Parent()
	_ = parent.Sub(9)
	if p.Last().Index != 1 {
		t.Fatalf("extending parent modified child: %v", p)
	}
}
