package repository

import (
	"reflect"
	"testing"

	"github.com/radcr/radcr-backend/internal/model"
)

func TestFilterClause(t *testing.T) {
	tests := []struct {
		name      string
		filter    model.CaseFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "user only",
			wantWhere: ` WHERE user_id = $1`,
			wantArgs:  []any{7},
		},
		{
			name:      "difficulties",
			filter:    model.CaseFilter{Difficulties: []int{2, 3}},
			wantWhere: ` WHERE user_id = $1 AND difficulty = ANY($2)`,
			wantArgs:  []any{7, []int{2, 3}},
		},
		{
			name:      "difficulties and tag",
			filter:    model.CaseFilter{Difficulties: []int{5}, Tag: "foie"},
			wantWhere: ` WHERE user_id = $1 AND difficulty = ANY($2) AND $3 = ANY(tags)`,
			wantArgs:  []any{7, []int{5}, "foie"},
		},
		{
			name:      "tag only",
			filter:    model.CaseFilter{Tag: "rein"},
			wantWhere: ` WHERE user_id = $1 AND $2 = ANY(tags)`,
			wantArgs:  []any{7, "rein"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			where, args := filterClause(tc.filter, []any{7})
			if where != tc.wantWhere {
				t.Fatalf("expected %q, got %q", tc.wantWhere, where)
			}
			if !reflect.DeepEqual(args, tc.wantArgs) {
				t.Fatalf("expected args %v, got %v", tc.wantArgs, args)
			}
		})
	}
}
