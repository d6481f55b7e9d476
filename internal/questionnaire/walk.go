package questionnaire

import (
	"fmt"

	"github.com/radcr/radcr-backend/internal/model"
)

// Walk visits every question in document order (pre-order, all options).
// Returning false from fn stops the walk.
func Walk(roots []model.Question, fn func(q model.Question, p Path) bool) {
	walk(roots, Path{}, fn)
}

func walk(list []model.Question, owner Path, fn func(model.Question, Path) bool) bool {
	for i, q := range list {
		var p Path
		if len(owner) == 0 {
			p = Q(i)
		} else {
			p = owner.Sub(i)
		}
		if !fn(q, p) {
			return false
		}
		for j, o := range q.Options {
			if !walk(o.SubQuestions, p.Option(j), fn) {
				return false
			}
		}
	}
	return true
}

// Find returns the question with the given id and its current path.
func Find(roots []model.Question, id string) (model.Question, Path, bool) {
	var (
		found model.Question
		at    Path
		ok    bool
	)
	Walk(roots, func(q model.Question, p Path) bool {
		if q.ID == id {
			found, at, ok = q, p, true
			return false
		}
		return true
	})
	return found, at, ok
}

// Check verifies that every node has an id, ids are unique across
// questions and options, and question types are known.
func Check(roots []model.Question) error {
	seen := make(map[string]struct{})
	var err error
	mark := func(id string, p Path) bool {
		if id == "" {
			err = fmt.Errorf("%w: empty id at %s", ErrInvalidNode, p)
			return false
		}
		if _, dup := seen[id]; dup {
			err = fmt.Errorf("%w: %q at %s", ErrDuplicateID, id, p)
			return false
		}
		seen[id] = struct{}{}
		return true
	}

	Walk(roots, func(q model.Question, p Path) bool {
		if !validType(q.Type) {
			err = fmt.Errorf("%w: unknown type %q at %s", ErrInvalidNode, q.Type, p)
			return false
		}
		if !mark(q.ID, p) {
			return false
		}
		for j, o := range q.Options {
			if !mark(o.ID, p.Option(j)) {
				return false
			}
		}
		return true
	})
	return err
}

// Count returns the number of questions in the tree, nested ones included.
func Count(roots []model.Question) int {
	n := 0
	Walk(roots, func(model.Question, Path) bool {
		n++
		return true
	})
	return n
}
