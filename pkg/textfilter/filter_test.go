package textfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	f := New()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase word",
			input:    "well, damn. The bridge is out.",
			expected: "well, dang. The bridge is out.",
		},
		{
			name:     "title case preserved",
			input:    "Hell waits below.",
			expected: "Heck waits below.",
		},
		{
			name:     "all caps preserved",
			input:    "DAMN the tide!",
			expected: "DANG the tide!",
		},
		{
			name:     "word boundary respected",
			input:    "The assassin passes the hellebore.",
			expected: "The assassin passes the hellebore.",
		},
		{
			name:     "multiple words in one line",
			input:    "That bastard wrecked the whole damn guild, the ass.",
			expected: "That scoundrel wrecked the whole dang guild, the butt.",
		},
		{
			name:     "clean text untouched",
			input:    "The forge has gone cold.",
			expected: "The forge has gone cold.",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, f.Apply(tc.input))
		})
	}
}

func TestRatingRequiresFilter(t *testing.T) {
	assert.True(t, RatingRequiresFilter("G"))
	assert.True(t, RatingRequiresFilter("pg"))
	assert.True(t, RatingRequiresFilter("PG-13"))
	assert.True(t, RatingRequiresFilter(" PG13 "))
	assert.False(t, RatingRequiresFilter("R"))
	assert.False(t, RatingRequiresFilter("M"))
	assert.False(t, RatingRequiresFilter(""))
}
