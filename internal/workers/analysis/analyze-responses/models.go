// internal/workers/analysis/analyze-responses/models.go
package analyzeresponses

import (
	"encoding/json"

	"stresscheck/internal/analysis"
)

// Input holds the job variables. Responses is kept raw so a missing value
// can be told apart from a malformed one. When it is absent, SubmissionID
// names a stored transcript to analyze instead.
type Input struct {
	Responses    json.RawMessage `json:"responses,omitempty"`
	SubmissionID string          `json:"submissionId,omitempty"`
}

type Output struct {
	AnalysisAvailable bool                     `json:"analysisAvailable"`
	StressLevel       string                   `json:"stressLevel,omitempty"`
	Reason            string                   `json:"reason,omitempty"`
	Analysis          *analysis.AnalysisResult `json:"analysis"`
}
