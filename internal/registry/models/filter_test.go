package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListFilterNormalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f := ListFilter{}.Normalize()
		assert.Equal(t, ScopeActive, f.Scope)
		assert.Equal(t, 1, f.Page)
		assert.Equal(t, DefaultLimit, f.Limit)
		assert.Equal(t, DefaultSortColumn, f.SortBy)
	})

	t.Run("limit clamps to maximum", func(t *testing.T) {
		f := ListFilter{Limit: 10_000}.Normalize()
		assert.Equal(t, MaxLimit, f.Limit)
	})

	t.Run("unknown sort column falls back", func(t *testing.T) {
		f := ListFilter{SortBy: "attributes->>'secret'", SortDesc: true}.Normalize()
		assert.Equal(t, DefaultSortColumn, f.SortBy)
		assert.False(t, f.SortDesc, "fallback resets direction too")
	})

	t.Run("allow-listed sort survives", func(t *testing.T) {
		f := ListFilter{SortBy: "createdAt", SortDesc: true}.Normalize()
		assert.Equal(t, "createdAt", f.SortBy)
		assert.True(t, f.SortDesc)
	})

	t.Run("search is trimmed", func(t *testing.T) {
		f := ListFilter{Search: "  santos "}.Normalize()
		assert.Equal(t, "santos", f.Search)
	})
}

func TestAgeBounds(t *testing.T) {
	cases := []struct {
		raw     string
		min     int
		max     int
		ok      bool
	}{
		{"", 0, 0, false},
		{"60-69", 60, 69, true},
		{"90+", 90, -1, true},
		{" 70 - 79 ", 70, 79, true},
		{"abc", 0, 0, false},
		{"80-60", 0, 0, false},
		{"-5+", 0, 0, false},
	}
	for _, tc := range cases {
		min, max, ok := ListFilter{AgeRange: tc.raw}.AgeBounds()
		assert.Equal(t, tc.ok, ok, "range %q", tc.raw)
		if tc.ok {
			assert.Equal(t, tc.min, min, "range %q", tc.raw)
			assert.Equal(t, tc.max, max, "range %q", tc.raw)
		}
	}
}

func TestNewPageResult(t *testing.T) {
	res := NewPageResult(nil, 51, 25)
	assert.NotNil(t, res.Items, "items never nil for JSON consumers")
	assert.Equal(t, 51, res.Total)
	assert.Equal(t, 3, res.TotalPages)

	assert.Equal(t, 0, NewPageResult(nil, 0, 25).TotalPages)
}
