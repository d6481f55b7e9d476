package questionnaire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Container is the kind of list a path step descends into.
type Container int

const (
	// Questions is the root question list of a questionnaire.
	Questions Container = iota
	// Options is the option list of a question.
	Options
	// SubQuestions is the sub-question list of an option.
	SubQuestions
)

const (
	markerOptions      = "options"
	markerSubQuestions = "subQuestions"
)

func (c Container) String() string {
	switch c {
	case Questions:
		return "questions"
	case Options:
		return markerOptions
	case SubQuestions:
		return markerSubQuestions
	default:
		return "container(" + strconv.Itoa(int(c)) + ")"
	}
}

// holdsQuestions reports whether the list contains questions (root or sub-questions).
func (c Container) holdsQuestions() bool {
	return c == Questions || c == SubQuestions
}

// Step selects the element at Index of a list of kind In.
type Step struct {
	In    Container
	Index int
}

// Path is a structural address into the question tree. The first step is
// always in Questions; Options and SubQuestions steps then alternate.
//
// An empty Path addresses the root list itself.
type Path []Step

// Q returns a path to root question i.
func Q(i int) Path {
	return Path{{In: Questions, Index: i}}
}

// Option extends a question path to its option i.
func (p Path) Option(i int) Path {
	return p.with(Step{In: Options, Index: i})
}

// Sub extends an option path to its sub-question i.
func (p Path) Sub(i int) Path {
	return p.with(Step{In: SubQuestions, Index: i})
}

func (p Path) with(s Step) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// Parent returns the path of the node owning the list that holds p's target.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

// Last returns the final step. It panics on an empty path.
func (p Path) Last() Step {
	return p[len(p)-1]
}

// IsQuestion reports whether p addresses a question.
func (p Path) IsQuestion() bool {
	return len(p) > 0 && p.Last().In.holdsQuestions()
}

// IsOption reports whether p addresses an option.
func (p Path) IsOption() bool {
	return len(p) > 0 && p.Last().In == Options
}

// Nested reports whether p goes through an option list, i.e. is not a
// root-level question.
func (p Path) Nested() bool {
	for _, s := range p {
		if s.In == Options {
			return true
		}
	}
	return false
}

// HasPrefix reports whether prefix is a leading part of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Equal reports whether both paths address the same location.
func (p Path) Equal(o Path) bool {
	return len(p) == len(o) && p.HasPrefix(o)
}

// Validate checks the step alternation and index signs.
func (p Path) Validate() error {
	for i, s := range p {
		if s.Index < 0 {
			return fmt.Errorf("%w: negative index at step %d", ErrMalformedPath, i)
		}
		var want Container
		switch {
		case i == 0:
			want = Questions
		case p[i-1].In.holdsQuestions():
			want = Options
		default:
			want = SubQuestions
		}
		if s.In != want {
			return fmt.Errorf("%w: step %d is %s, want %s", ErrMalformedPath, i, s.In, want)
		}
	}
	return nil
}

// String renders the path in its wire form, e.g. 0.options.2.subQuestions.1.
func (p Path) String() string {
	parts := make([]string, 0, len(p)*2)
	for _, s := range p {
		if s.In != Questions {
			parts = append(parts, s.In.String())
		}
		parts = append(parts, strconv.Itoa(s.Index))
	}
	return strings.Join(parts, ".")
}

// MarshalJSON encodes the path as the alternating array
// [0, "options", 2, "subQuestions", 1].
func (p Path) MarshalJSON() ([]byte, error) {
	elems := make([]any, 0, len(p)*2)
	for _, s := range p {
		if s.In != Questions {
			elems = append(elems, s.In.String())
		}
		elems = append(elems, s.Index)
	}
	return json.Marshal(elems)
}

// UnmarshalJSON decodes the alternating array form. A trailing marker is rejected.
func (p *Path) UnmarshalJSON(data []byte) error {
	parsed, trailing, err := parseWire(data)
	if err != nil {
		return err
	}
	if trailing != nil {
		return fmt.Errorf("%w: trailing %q marker", ErrMalformedPath, trailing.String())
	}
	*p = parsed
	return nil
}

// ParsePath decodes a wire path addressing a node.
func ParsePath(raw json.RawMessage) (Path, error) {
	var p Path
	if err := p.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrMalformedPath)
	}
	return p, nil
}

// ParseListOwner decodes a wire path addressing a question list: empty or
// null for the root list, an option path, or an option path followed by a
// trailing "subQuestions" marker.
func ParseListOwner(raw json.RawMessage) (Path, error) {
	p, trailing, err := parseWire(raw)
	if err != nil {
		return nil, err
	}
	if trailing != nil && *trailing != SubQuestions {
		return nil, fmt.Errorf("%w: questions cannot be added under %q", ErrMalformedPath, trailing.String())
	}
	if len(p) > 0 && !p.IsOption() {
		return nil, fmt.Errorf("%w: owner of a question list must be an option", ErrMalformedPath)
	}
	return p, nil
}

func parseWire(data []byte) (Path, *Container, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Path{}, nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedPath, err)
	}

	p := Path{}
	next := Questions
	var pending *Container
	for i, e := range elems {
		var idx int
		if err := json.Unmarshal(e, &idx); err == nil {
			if i > 0 && pending == nil {
				return nil, nil, fmt.Errorf("%w: index at position %d lacks a container marker", ErrMalformedPath, i)
			}
			if pending != nil {
				next = *pending
				pending = nil
			}
			p = append(p, Step{In: next, Index: idx})
			continue
		}

		var marker string
		if err := json.Unmarshal(e, &marker); err != nil {
			return nil, nil, fmt.Errorf("%w: element %d is neither index nor marker", ErrMalformedPath, i)
		}
		if pending != nil || i == 0 {
			return nil, nil, fmt.Errorf("%w: unexpected marker %q at position %d", ErrMalformedPath, marker, i)
		}
		var c Container
		switch marker {
		case markerOptions:
			c = Options
		case markerSubQuestions:
			c = SubQuestions
		default:
			return nil, nil, fmt.Errorf("%w: unknown marker %q", ErrMalformedPath, marker)
		}
		pending = &c
	}

	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	if pending != nil {
		want := SubQuestions
		if p.IsQuestion() {
			want = Options
		}
		if *pending != want {
			return nil, nil, fmt.Errorf("%w: trailing %q after %s", ErrMalformedPath, pending.String(), p.Last().In)
		}
	}
	return p, pending, nil
}
