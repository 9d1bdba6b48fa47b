package analysis

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"stresscheck/internal/segment"
)

var (
	exclamationRuns = regexp.MustCompile(`!+`)
	questionRuns    = regexp.MustCompile(`\?+`)
	ellipsisRuns    = regexp.MustCompile(`\.{3,}`)
)

// AnalyzePatterns computes surface metrics. Empty text yields all zeros.
func AnalyzePatterns(text string) TextPatternMetrics {
	m := TextPatternMetrics{
		ExclamationCount: len(exclamationRuns.FindAllStringIndex(text, -1)),
		QuestionCount:    len(questionRuns.FindAllStringIndex(text, -1)),
		EllipsisCount:    len(ellipsisRuns.FindAllStringIndex(text, -1)),
		SentenceCount:    len(segment.SplitSentences(text)),
		WordCount:        len(segment.Tokenize(text)),
	}

	if total := utf8.RuneCountInString(text); total > 0 {
		upper := 0
		for _, r := range text {
			if unicode.IsUpper(r) {
				upper++
			}
		}
		m.UppercaseRatio = float64(upper) / float64(total)
	}
	return m
}
