package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Category
		ok   bool
	}{
		{name: "exact", raw: "math", want: CategoryMath, ok: true},
		{name: "upper case", raw: "MATH", want: CategoryMath, ok: true},
		{name: "padded", raw: "  planning\n", want: CategoryPlanning, ok: true},
		{name: "empty", raw: "", want: CategoryGeneral, ok: false},
		{name: "hallucinated", raw: "astrology", want: CategoryGeneral, ok: false},
		{name: "sentence", raw: "The category is math", want: CategoryGeneral, ok: false},
		{name: "failure marker", raw: "Error: upstream timeout", want: CategoryGeneral, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCategory(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestCategories(t *testing.T) {
	all := Categories()
	assert.Len(t, all, 8)
	for _, c := range all {
		assert.True(t, c.Valid(), c)
	}

	// callers must not be able to mutate the canonical set
	all[0] = "mutated"
	assert.Equal(t, CategoryGeneral, Categories()[0])
}

func TestRequestStatePackage(t *testing.T) {
	s := NewRequestState(QueryInput{Query: "q"})
	s.Category = CategoryPlanning
	s.SelectedHandler = CategoryPlanning
	s.Plan = []string{"1. a", "2. b"}
	s.Response = "done"

	res := s.Package("inv-1", Usage{Calls: 2})
	assert.True(t, res.Success)
	assert.Equal(t, "inv-1", res.InvocationID)
	assert.Equal(t, []string{"1. a", "2. b"}, res.Plan)
	assert.Equal(t, 2, res.Usage.Calls)

	s.Plan[0] = "changed"
	assert.Equal(t, "1. a", res.Plan[0])

	s.Error = "boom"
	failed := s.Package("inv-2", Usage{})
	assert.False(t, failed.Success)
	assert.Nil(t, failed.Plan, "a failed invocation returns no partial plan")
	assert.Equal(t, CategoryPlanning, failed.Category)
}
