package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "punctuation is split off",
			text:     "I feel calm, today!",
			expected: []string{"I", "feel", "calm", ",", "today", "!"},
		},
		{
			name:     "empty",
			text:     "",
			expected: []string{},
		},
		{
			name:     "whitespace only",
			text:     "   \n\t",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.text))
		})
	}
}

func TestTokenize_NoWhitespaceTokens(t *testing.T) {
	for _, tok := range Tokenize("Line one.\n\nLine  two\tends here") {
		assert.NotEmpty(t, tok)
		assert.NotContains(t, tok, " ")
		assert.NotContains(t, tok, "\n")
	}
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"I", "feel", "calm", "today"}, Words("I feel calm, today!"))
	assert.Empty(t, Words("?!"))
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t,
		[]string{"I am tired.", "I can't sleep!", "What should I do?"},
		SplitSentences("I am tired. I can't sleep! What should I do?"))

	assert.Len(t, SplitSentences("Dr. Smith helped me today. It was good."), 2)
	assert.Equal(t, []string{"just one line"}, SplitSentences("just one line"))
	assert.Equal(t, []string{}, SplitSentences(""))
	assert.Equal(t, []string{}, SplitSentences("  \n "))
}

func TestTruncateTokens(t *testing.T) {
	assert.Equal(t, "I feel", TruncateTokens("I feel very tired", 2))
	assert.Equal(t, "I feel very tired", TruncateTokens("I feel very tired", 4))
	assert.Equal(t, "I feel very tired", TruncateTokens("I feel very tired", 0))
	assert.Equal(t, "Hi,", TruncateTokens("Hi, there", 2))
	assert.Equal(t, "", TruncateTokens("", 3))
}

func TestTruncateTokens_CurlyQuotes(t *testing.T) {
	out := TruncateTokens("I don’t know what to do", 3)
	assert.True(t, len(out) > 0)
	assert.Contains(t, "I don't know what to do", out)
	assert.LessOrEqual(t, len(Tokenize(out)), 3)
}
