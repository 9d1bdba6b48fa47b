package analysis

import "math"

// Group weights of the composite score.
const (
	sentimentWeight = 0.4
	keywordWeight   = 0.4
	patternWeight   = 0.2
)

// Level thresholds on the normalized 0-10 scale, calibrated against the
// formula in StressScore rather than derived from its bounds.
const (
	criticalThreshold   = 7.0
	highStressThreshold = 5.0
	mildStressThreshold = 3.0
)

// StressScore fuses the three signal groups into a score clamped to [0, 10].
func StressScore(k KeywordMatches, s SentimentProfile, p TextPatternMetrics) float64 {
	var score float64

	switch {
	case s.Compound <= -0.5:
		score += 3 * sentimentWeight
	case s.Compound <= -0.2:
		score += 2 * sentimentWeight
	case s.Compound < 0:
		score += sentimentWeight
	}

	ratio := float64(len(k.Negative)) / float64(len(k.Positive)+1)
	switch {
	case ratio > 2:
		score += 3 * keywordWeight
	case ratio > 1:
		score += 2 * keywordWeight
	case ratio > 0.5:
		score += keywordWeight
	}

	if p.ExclamationCount > 5 || p.UppercaseRatio > 0.3 {
		score += patternWeight
	}
	if p.EllipsisCount > 3 {
		score += patternWeight
	}

	maxScore := 3 * (sentimentWeight + keywordWeight + patternWeight)
	normalized := score * 10 / maxScore
	return math.Max(0, math.Min(normalized, 10))
}

// LevelForScore maps a normalized score onto the ordered levels.
func LevelForScore(score float64) StressLevel {
	switch {
	case score >= criticalThreshold:
		return Critical
	case score >= highStressThreshold:
		return HighStress
	case score >= mildStressThreshold:
		return MildStress
	default:
		return Stable
	}
}

// ClassifyStress is LevelForScore(StressScore(...)). It is a pure function.
func ClassifyStress(k KeywordMatches, s SentimentProfile, p TextPatternMetrics) StressLevel {
	return LevelForScore(StressScore(k, s, p))
}
