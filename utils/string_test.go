package utils

import (
	"strings"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"hello world",
		`{"id":"abc123","title":"Test Song","language":"hindi"}`,
		strings.Repeat("la ", 5000),
	}

	for _, input := range inputs {
		compressed, err := CompressString(input)
		if err != nil {
			t.Fatalf("CompressString failed: %v", err)
		}

		decompressed, err := DecompressString(compressed)
		if err != nil {
			t.Fatalf("DecompressString failed: %v", err)
		}

		if decompressed != input {
			t.Errorf("Round trip mismatch: expected %q, got %q", input, decompressed)
		}
	}
}

func TestCompressStringShrinksRepetitiveData(t *testing.T) {
	input := strings.Repeat("abcdefgh", 1000)
	compressed, err := CompressString(input)
	if err != nil {
		t.Fatalf("CompressString failed: %v", err)
	}
	if len(compressed) >= len(input) {
		t.Errorf("Expected compressed size < %d, got %d", len(input), len(compressed))
	}
}

func TestDecompressStringInvalidInput(t *testing.T) {
	if _, err := DecompressString("not base64 at all!!!"); err == nil {
		t.Error("Expected error for invalid base64 input, got nil")
	}

	// Valid base64 but not gzip data
	if _, err := DecompressString("aGVsbG8gd29ybGQ="); err == nil {
		t.Error("Expected error for non-gzip input, got nil")
	}
}
