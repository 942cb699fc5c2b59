package cmdline

import (
	"errors"
	"testing"
)

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: []string{}},
		{name: "single word", input: "upx", expected: []string{"upx"}},
		{name: "flags", input: "upx --best --lzma", expected: []string{"upx", "--best", "--lzma"}},
		{name: "extra whitespace", input: "  strip   -s ", expected: []string{"strip", "-s"}},
		{name: "double quotes", input: `strip "my tool"`, expected: []string{"strip", "my tool"}},
		{name: "single quotes", input: "upx '--force macos'", expected: []string{"upx", "--force macos"}},
		{name: "escaped space", input: `tool arg\ one`, expected: []string{"tool", "arg one"}},
		{name: "empty quoted word", input: `tool '' x`, expected: []string{"tool", "", "x"}},
		{name: "nested quotes", input: `python -c "print('ok')"`, expected: []string{"python", "-c", "print('ok')"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Split(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slicesEqual(result, tt.expected) {
				t.Errorf("Split(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSplitErrors(t *testing.T) {
	if _, err := Split(`tool "unclosed`); !errors.Is(err, ErrUnclosedQuote) {
		t.Errorf("want ErrUnclosedQuote, got %v", err)
	}
	if _, err := Split(`tool trailing\`); !errors.Is(err, ErrTrailingEscape) {
		t.Errorf("want ErrTrailingEscape, got %v", err)
	}
}

func TestJoinSplitRoundTrip(t *testing.T) {
	args := []string{"upx", "--best", "arg with spaces", "it's", ""}

	joined := Join(args)
	back, err := Split(joined)
	if err != nil {
		t.Fatalf("Split(Join(...)): %v", err)
	}
	if !slicesEqual(back, args) {
		t.Errorf("round trip = %v, want %v", back, args)
	}
}
