package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsFold(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		substr   string
		expected bool
	}{
		{"exact match", "John Smith", "John Smith", true},
		{"case insensitive", "John Smith", "john smith", true},
		{"partial first name", "John Smith", "JOHN", true},
		{"partial last name", "John Smith", "smith", true},
		{"substring mid word", "Johnson", "hns", true},
		{"no match", "John Smith", "Garcia", false},
		{"empty needle matches", "John Smith", "", true},
		{"needle longer than haystack", "Jo", "John", false},
		{"unicode fold", "José García", "josé", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContainsFold(tt.s, tt.substr))
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		max      int
		expected string
	}{
		{"shorter than max", "short", 10, "short"},
		{"exactly max", "abcdefghij", 10, "abcdefghij"},
		{"cut with ellipsis", "abcdefghijk", 10, "abcdefg..."},
		{"tiny max skips ellipsis", "abcdef", 3, "abc"},
		{"empty string", "", 5, ""},
		{"multibyte runes", "héllo wörld", 8, "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Truncate(tt.s, tt.max)
			assert.Equal(t, tt.expected, result)
			assert.LessOrEqual(t, len([]rune(result)), tt.max)
		})
	}
}

func TestStringFromPtr(t *testing.T) {
	s := "value"
	assert.Equal(t, "value", StringFromPtr(&s))
	assert.Equal(t, "", StringFromPtr(nil))
}
