// Package segment splits English text into word tokens and sentences.
package segment

import (
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// Curly quotes are folded to ASCII before tokenizing, so every token is a
// substring of the text it was cut from.
var quoteFolder = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
)

// Tokenize returns word and punctuation tokens in order, Penn Treebank style:
// punctuation is split off and contractions become two tokens ("can't" is
// "ca" + "n't"). Empty or whitespace-only text yields an empty, non-nil slice.
func Tokenize(text string) []string {
	return tokenize(quoteFolder.Replace(text))
}

func tokenize(text string) []string {
	out := []string{}
	if strings.TrimSpace(text) == "" {
		return out
	}
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return out
	}
	for _, tok := range doc.Tokens() {
		if strings.TrimSpace(tok.Text) != "" {
			out = append(out, tok.Text)
		}
	}
	return out
}

// Words returns only the tokens that contain a letter or digit.
func Words(text string) []string {
	tokens := Tokenize(text)
	words := tokens[:0:0]
	for _, tok := range tokens {
		if isWord(tok) {
			words = append(words, tok)
		}
	}
	return words
}

func isWord(tok string) bool {
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// SplitSentences runs the Punkt sentence boundary detector with its English
// model, which knows common abbreviations ("Dr.", "e.g."). Sentences are
// trimmed; empty ones are dropped.
func SplitSentences(text string) []string {
	sentences := []string{}
	if strings.TrimSpace(text) == "" {
		return sentences
	}
	doc, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return sentences
	}
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			sentences = append(sentences, t)
		}
	}
	return sentences
}

// TruncateTokens returns the prefix of text holding at most maxTokens tokens,
// preserving the original spacing. maxTokens < 1 returns text unchanged, as
// does text whose tokens cannot be located in it.
func TruncateTokens(text string, maxTokens int) string {
	if maxTokens < 1 {
		return text
	}
	folded := quoteFolder.Replace(text)
	tokens := tokenize(folded)
	if len(tokens) <= maxTokens {
		return text
	}

	end := 0
	for _, tok := range tokens[:maxTokens] {
		i := strings.Index(folded[end:], tok)
		if i < 0 {
			return text
		}
		end += i + len(tok)
	}
	return folded[:end]
}
