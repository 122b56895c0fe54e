package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnswerSet(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []int
		wantErr  bool
	}{
		{"single index", "3", []int{3}, false},
		{"comma separated", "1,3", []int{1, 3}, false},
		{"bracketed set", "[1,3]", []int{1, 3}, false},
		{"spaces tolerated", " [1, 3] ", []int{1, 3}, false},
		{"single bracketed", "[2]", []int{2}, false},
		{"duplicates kept for linting", "2,2", []int{2, 2}, false},
		{"empty", "", nil, true},
		{"empty brackets", "[]", nil, true},
		{"not a number", "two", nil, true},
		{"trailing comma", "1,", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswerSet(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParsePoints(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected float64
		wantErr  bool
	}{
		{"integer", "2", 2, false},
		{"fractional", "2.5", 2.5, false},
		{"zero", "0", 0, false},
		{"negative parses", "-1", -1, false},
		{"empty", "", 0, true},
		{"not a number", "two", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePoints(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
