package analysis

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampKey is the reserved ResponseSet key holding the submission time.
// It is never treated as an answer.
const TimestampKey = "timestamp"

// ResponseSet maps question text to the user's free-text answer.
type ResponseSet map[string]string

// StressLevel is ordered: Stable < MildStress < HighStress < Critical.
type StressLevel int

const (
	Stable StressLevel = iota
	MildStress
	HighStress
	Critical
)

var stressLevelNames = [...]string{
	Stable:     "Stable",
	MildStress: "Mild Stress",
	HighStress: "High Stress",
	Critical:   "Critical",
}

func (l StressLevel) String() string {
	if l < Stable || l > Critical {
		return fmt.Sprintf("StressLevel(%d)", int(l))
	}
	return stressLevelNames[l]
}

// ParseStressLevel accepts the wire names.
func ParseStressLevel(s string) (StressLevel, error) {
	for i, name := range stressLevelNames {
		if name == s {
			return StressLevel(i), nil
		}
	}
	return Stable, fmt.Errorf("unknown stress level %q", s)
}

func (l StressLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *StressLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseStressLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// KeywordMatches lists emotional keyword hits in token order, duplicates kept.
type KeywordMatches struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}

// SentimentProfile holds pos+neu+neg = 1 and compound in [-1, 1].
type SentimentProfile struct {
	Pos      float64 `json:"pos"`
	Neu      float64 `json:"neu"`
	Neg      float64 `json:"neg"`
	Compound float64 `json:"compound"`
}

// TextPatternMetrics are surface statistics of the combined text.
type TextPatternMetrics struct {
	ExclamationCount int     `json:"exclamation_count"`
	QuestionCount    int     `json:"question_count"`
	EllipsisCount    int     `json:"ellipsis_count"`
	UppercaseRatio   float64 `json:"uppercase_ratio"`
	SentenceCount    int     `json:"sentence_count"`
	WordCount        int     `json:"word_count"`
}

type AnalysisDetails struct {
	EmotionalKeywords KeywordMatches     `json:"emotional_keywords"`
	Sentiment         SentimentProfile   `json:"sentiment"`
	TextPatterns      TextPatternMetrics `json:"text_patterns"`
}

// AnalysisResult is produced whole or not at all.
type AnalysisResult struct {
	AnalysisID      string          `json:"analysis_id"`
	StressLevel     StressLevel     `json:"stress_level"`
	Score           float64         `json:"score"`
	ImprovementTips []string        `json:"improvement_tips"`
	AnalysisDetails AnalysisDetails `json:"analysis_details"`
	AnalyzedAt      time.Time       `json:"analyzed_at"`
}
