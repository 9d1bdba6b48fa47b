package analysis

import (
	"sort"
	"strings"

	"stresscheck/internal/segment"
)

var negativeKeywords = keywordSet(
	"stress", "stressed", "anxiety", "anxious", "depression", "worried", "sad",
	"angry", "tired", "overwhelmed", "lonely", "afraid", "hopeless",
	"exhausted", "frustrated", "upset", "confused",
)

var positiveKeywords = keywordSet(
	"happy", "joy", "excited", "peaceful", "calm", "relaxed", "grateful",
	"confident", "motivated", "optimistic", "energetic", "loved", "supported",
	"content", "hopeful",
)

func keywordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// ExtractKeywords matches lower-cased tokens against the fixed emotional
// keyword sets. Both lists are non-nil.
func ExtractKeywords(text string) KeywordMatches {
	m := KeywordMatches{Positive: []string{}, Negative: []string{}}
	for _, tok := range segment.Tokenize(strings.ToLower(text)) {
		if _, ok := negativeKeywords[tok]; ok {
			m.Negative = append(m.Negative, tok)
		} else if _, ok := positiveKeywords[tok]; ok {
			m.Positive = append(m.Positive, tok)
		}
	}
	return m
}

// NegativeKeywords returns the negative set, sorted.
func NegativeKeywords() []string { return sortedKeys(negativeKeywords) }

// PositiveKeywords returns the positive set, sorted.
func PositiveKeywords() []string { return sortedKeys(positiveKeywords) }

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
