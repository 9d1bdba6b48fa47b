package analysis

import (
	"sort"
	"strings"
)

var questions = []string{
	"How have you been feeling lately? Can you describe it in a few words?",
	"What's one thing that has been on your mind a lot recently?",
	"Do you often feel stressed or overwhelmed? When does it happen the most?",
	"If you had to describe your mood today in one word, what would it be?",
	"What's something that made you happy or sad in the past week?",
	"Do you find it easy to talk about your feelings with others? Why or why not?",
	"When you're feeling low, what's the first thing you usually do?",
	"What's something you wish people understood about you?",
	"How do you usually handle difficult emotions like sadness or anxiety?",
	"If you could change one thing about your current life, what would it be?",
}

// Questions returns the questionnaire in presentation order.
func Questions() []string {
	out := make([]string, len(questions))
	copy(out, questions)
	return out
}

// CombinedText joins the answers with single spaces: questionnaire answers
// first in questionnaire order, then any other questions sorted by key.
// The timestamp entry and blank answers are skipped.
func CombinedText(rs ResponseSet) string {
	parts := make([]string, 0, len(rs))
	seen := make(map[string]bool, len(questions))

	for _, q := range questions {
		seen[q] = true
		if a, ok := rs[q]; ok && strings.TrimSpace(a) != "" {
			parts = append(parts, a)
		}
	}

	extra := make([]string, 0)
	for q := range rs {
		if !seen[q] && q != TimestampKey {
			extra = append(extra, q)
		}
	}
	sort.Strings(extra)
	for _, q := range extra {
		if a := rs[q]; strings.TrimSpace(a) != "" {
			parts = append(parts, a)
		}
	}

	return strings.Join(parts, " ")
}
