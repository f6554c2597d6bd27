package nameutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"fooID3bar", []string{"foo", "id", "3", "bar"}},
		{"user_name", []string{"user", "name"}},
		{"APIKey", []string{"api", "key"}},
		{"orderLineItem", []string{"order", "line", "item"}},
		{"simple", []string{"simple"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitName(tt.input))
		})
	}
}

func TestSanitizeUnquoted(t *testing.T) {
	assert.Equal(t, "users", Sanitize("public.users", false))
	assert.Equal(t, "users", Sanitize("users", false))
}

func TestSanitizeQuoted(t *testing.T) {
	assert.Equal(t, "weird_name", Sanitize("weird name!!", true))
	assert.Equal(t, "a_b_c", Sanitize("a.b.c", true))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "foo_id_3_bar", Normalize("fooID3bar"))
	assert.Equal(t, "users", Normalize("dbo.Users"))
}
