package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInt(t *testing.T) {
	testCases := []struct {
		input        string
		defaultValue int
		expected     int
	}{
		{"123", 0, 123},
		{"", 100, 100},
		{"invalid", 50, 50},
		{"-10", 0, -10},
		{"0", 100, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := ParseInt(tc.input, tc.defaultValue)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestClampLimit(t *testing.T) {
	testCases := []struct {
		name     string
		limit    int
		expected int
	}{
		{"zero falls back to default", 0, 30},
		{"negative falls back to default", -5, 30},
		{"within range passes through", 42, 42},
		{"above ceiling is clamped", 5000, 100},
		{"exactly the ceiling", 100, 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClampLimit(tc.limit, 30, 100))
		})
	}
}
