package normalization

import (
	"testing"
)

type testMode string

const (
	testModeStrict  testMode = "strict"
	testModeLenient testMode = "lenient"
	testModeOff     testMode = "off"
)

func TestNormalizer_Basic(t *testing.T) {
	normalizer := NewNormalizer(map[string]testMode{
		"strict":  testModeStrict,
		"lenient": testModeLenient,
		"off":     testModeOff,
	}, testModeStrict)

	tests := []struct {
		name     string
		input    string
		expected testMode
	}{
		{"exact match", "strict", testModeStrict},
		{"case insensitive", "STRICT", testModeStrict},
		{"with spaces", "  lenient  ", testModeLenient},
		{"mixed case spaces", "  OfF  ", testModeOff},
		{"invalid input", "invalid", testModeStrict}, // Should return default
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizer.Normalize(tt.input)
			if result != tt.expected {
				t.Errorf("Normalize(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizer_WithError(t *testing.T) {
	normalizer := NewNormalizer(map[string]testMode{
		"strict":  testModeStrict,
		"lenient": testModeLenient,
	}, testModeStrict)

	result, err := normalizer.NormalizeWithError("STRICT")
	if err != nil {
		t.Errorf("NormalizeWithError(valid input) returned error: %v", err)
	}
	if result != testModeStrict {
		t.Errorf("NormalizeWithError(valid input) = %v, want %v", result, testModeStrict)
	}

	_, err = normalizer.NormalizeWithError("invalid")
	if err == nil {
		t.Error("NormalizeWithError(invalid input) should return error")
	}
}

func TestNormalizer_ValidateEnum(t *testing.T) {
	normalizer := NewNormalizer(map[string]testMode{
		"strict":  testModeStrict,
		"lenient": testModeLenient,
	}, testModeStrict)

	if !normalizer.ValidateEnum(testModeLenient) {
		t.Error("ValidateEnum(known value) should be true")
	}
	if normalizer.ValidateEnum(testMode("bogus")) {
		t.Error("ValidateEnum(unknown value) should be false")
	}
}

func TestValidKeys(t *testing.T) {
	normalizer := NewNormalizer(map[string]testMode{
		"off":     testModeOff,
		"strict":  testModeStrict,
		"lenient": testModeLenient,
	}, testModeStrict)

	keys := normalizer.ValidKeys()

	// Should be sorted
	expected := []string{"lenient", "off", "strict"}
	if len(keys) != len(expected) {
		t.Fatalf("ValidKeys() length = %d, want %d", len(keys), len(expected))
	}

	for i, key := range keys {
		if key != expected[i] {
			t.Errorf("ValidKeys()[%d] = %q, want %q", i, key, expected[i])
		}
	}
}
