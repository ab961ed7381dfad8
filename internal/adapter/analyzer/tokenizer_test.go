package analyzer

import (
	"testing"
)

func TestTokenizer_Tokenize(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("What is the Annual Leave limit?")
	want := []string{"annual", "leave", "limit"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %v, got %v", want, tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], tokens[i])
		}
	}
}

func TestTokenizer_KeepsNumbers(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("Employees are entitled to 21 days annual leave.")
	found := false
	for _, token := range tokens {
		if token == "21" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected numeric token 21, got %v", tokens)
	}
}

func TestTokenizer_StopwordRemoval(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("the policy of the company")
	for _, token := range tokens {
		if token == "the" || token == "of" {
			t.Errorf("stopword should be removed, got %v", tokens)
		}
	}
}

func TestTokenizer_ShortWordRemoval(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("a x go up")
	for _, token := range tokens {
		if len(token) < 2 {
			t.Errorf("short word should be removed: %s", token)
		}
	}
}

func TestTokenizer_CountTokens(t *testing.T) {
	tok := NewTokenizer()

	count := tok.CountTokens("hello world this is a test")
	if count < 6 {
		t.Errorf("expected count >= 6 words, got %d", count)
	}
	if got := tok.CountTokens(""); got != 0 {
		t.Errorf("expected 0 for empty input, got %d", got)
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"hello world", 2},
		{"hello-world", 2},
		{"sick_leave", 2},
		{"21 days", 2},
		{"  ", 0},
		{"naïve café", 2},
	}

	for _, tt := range tests {
		words := splitWords(tt.input)
		if len(words) != tt.expected {
			t.Errorf("splitWords(%q) = %d words, want %d: %v", tt.input, len(words), tt.expected, words)
		}
	}
}
