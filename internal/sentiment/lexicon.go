package sentiment

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/kljensen/snowball"

	"stresscheck/internal/segment"
)

// LexiconClassifier is an offline, deterministic stand-in for the hosted
// model. Word valences are summed with negation and intensifier handling and
// squashed through a logistic into (neg, pos).
type LexiconClassifier struct {
	valence      map[string]float64
	stems        map[string]float64
	intensifiers map[string]float64
	negators     map[string]bool
	steepness    float64
}

func NewLexiconClassifier() *LexiconClassifier {
	return &LexiconClassifier{
		valence:      defaultValence,
		stems:        stemIndex(defaultValence),
		intensifiers: defaultIntensifiers,
		negators:     defaultNegators,
		steepness:    0.8,
	}
}

func (c *LexiconClassifier) Name() string { return BackendLexicon }

// Classify never fails; it still honours a cancelled context.
func (c *LexiconClassifier) Classify(ctx context.Context, text string, maxLength int) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	words := segment.Words(segment.TruncateTokens(text, maxLength))
	for i := range words {
		words[i] = strings.ToLower(strings.ReplaceAll(words[i], "’", "'"))
	}

	score := c.polarity(words)
	pos := 1 / (1 + math.Exp(-c.steepness*score))
	return 1 - pos, pos, nil
}

func (c *LexiconClassifier) polarity(words []string) float64 {
	var total float64
	for i, w := range words {
		v, ok := c.lookup(w)
		if !ok {
			continue
		}
		v *= c.intensity(words, i)
		if c.negated(words, i) {
			v = -v * 0.74
		}
		total += v
	}
	return total
}

// lookup falls back to the word's English stem, so "worrying" scores like
// "worry".
func (c *LexiconClassifier) lookup(w string) (float64, bool) {
	if v, ok := c.valence[w]; ok {
		return v, true
	}
	if c.negators[w] || c.intensifiers[w] != 0 {
		return 0, false
	}
	v, ok := c.stems[stem(w)]
	return v, ok
}

func stem(w string) string {
	s, err := snowball.Stem(w, "english", false)
	if err != nil || s == "" {
		return w
	}
	return s
}

// stemIndex maps each stem to the valence of the alphabetically first word
// producing it.
func stemIndex(valence map[string]float64) map[string]float64 {
	words := make([]string, 0, len(valence))
	for w := range valence {
		words = append(words, w)
	}
	sort.Strings(words)

	idx := make(map[string]float64, len(words))
	for _, w := range words {
		s := stem(w)
		if _, ok := idx[s]; !ok {
			idx[s] = valence[w]
		}
	}
	return idx
}

// negated looks back up to three words.
func (c *LexiconClassifier) negated(words []string, i int) bool {
	for j := max(0, i-3); j < i; j++ {
		if c.negators[words[j]] {
			return true
		}
	}
	return false
}

// intensity looks back up to two words.
func (c *LexiconClassifier) intensity(words []string, i int) float64 {
	m := 1.0
	for j := max(0, i-2); j < i; j++ {
		if f, ok := c.intensifiers[words[j]]; ok {
			m *= f
		}
	}
	return m
}

var defaultValence = map[string]float64{
	// negative
	"stress": -2.0, "stressed": -2.5, "stressful": -2.3, "anxiety": -2.4, "anxious": -2.4,
	"depression": -2.8, "depressed": -2.8, "worried": -2.0, "worry": -1.8, "sad": -2.1,
	"angry": -2.3, "anger": -2.2, "tired": -1.5, "exhausted": -2.2, "overwhelmed": -2.5,
	"overwhelming": -2.3, "lonely": -2.2, "alone": -1.2, "afraid": -2.0, "scared": -2.1,
	"fear": -2.0, "hopeless": -3.0, "helpless": -2.6, "frustrated": -2.1, "upset": -2.0,
	"confused": -1.3, "bad": -2.0, "terrible": -2.8, "awful": -2.8, "horrible": -2.9,
	"miserable": -2.8, "hate": -2.7, "cry": -1.8, "crying": -1.9, "hurt": -2.1,
	"pain": -2.2, "panic": -2.6, "nervous": -1.8, "insomnia": -1.9, "worthless": -3.0,
	"struggle": -1.7, "struggling": -1.9, "difficult": -1.4, "hard": -1.0, "low": -1.2,
	"down": -1.0, "lost": -1.4, "empty": -1.9, "numb": -1.7, "annoyed": -1.6,
	"irritated": -1.7, "guilty": -1.9, "ashamed": -2.1, "failure": -2.4, "failing": -2.1,
	"problem": -1.2, "problems": -1.3, "worse": -2.0, "worst": -2.8, "unhappy": -2.2,
	"grief": -2.5, "burnout": -2.4, "drained": -2.0,
	// positive
	"happy": 2.7, "happiness": 2.6, "joy": 2.8, "joyful": 2.8, "excited": 2.3,
	"peaceful": 2.2, "calm": 1.9, "relaxed": 2.0, "grateful": 2.5, "thankful": 2.4,
	"confident": 2.2, "motivated": 2.0, "optimistic": 2.3, "energetic": 1.9, "loved": 2.9,
	"love": 3.0, "supported": 2.0, "content": 1.8, "hopeful": 2.2, "hope": 1.9,
	"good": 1.9, "great": 3.1, "wonderful": 2.9, "amazing": 2.8, "fantastic": 2.9,
	"fine": 0.8, "okay": 0.9, "ok": 0.9, "better": 1.9, "best": 3.0,
	"glad": 2.0, "proud": 2.1, "enjoy": 2.2, "enjoyed": 2.2, "fun": 2.3,
	"nice": 1.8, "smile": 2.0, "laugh": 2.3, "rested": 1.6, "safe": 1.8,
	"strong": 1.8, "well": 1.1, "positive": 2.3, "cheerful": 2.5, "blessed": 2.6,
}

var defaultIntensifiers = map[string]float64{
	"very": 1.3, "so": 1.3, "really": 1.25, "extremely": 1.5, "incredibly": 1.5,
	"too": 1.2, "completely": 1.4, "totally": 1.35, "absolutely": 1.4, "deeply": 1.4,
	"super": 1.3, "constantly": 1.3, "always": 1.15,
	"slightly": 0.6, "somewhat": 0.7, "bit": 0.75, "kinda": 0.8, "little": 0.75,
}

var defaultNegators = map[string]bool{
	"not": true, "no": true, "never": true, "nothing": true, "nobody": true,
	"none": true, "neither": true, "nor": true, "without": true, "hardly": true,
	"cannot": true, "can't": true, "cant": true, "don't": true, "dont": true,
	"doesn't": true, "didn't": true, "isn't": true, "wasn't": true, "aren't": true,
	"weren't": true, "won't": true, "wouldn't": true, "couldn't": true, "shouldn't": true,
	"haven't": true, "hasn't": true, "ain't": true, "n't": true,
}
