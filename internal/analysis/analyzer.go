// Package analysis turns questionnaire answers into a stress level with
// coping tips. Sentiment, emotional keywords and surface text patterns are
// fused into one weighted score.
package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "stresscheck/internal/common/errors"
	"stresscheck/internal/common/logger"
	"stresscheck/internal/common/metrics"
	"stresscheck/internal/common/observability"
	"stresscheck/internal/sentiment"
)

const (
	DefaultMaxTokens         = 512
	DefaultClassifierTimeout = 10 * time.Second
)

// Config tunes the analyzer.
type Config struct {
	MaxTokens         int
	ClassifierTimeout time.Duration
}

// Analyzer holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	scorer *SentimentScorer
	obs    *observability.Observability
	logger logger.Logger
	now    func() time.Time
}

// NewAnalyzer wires the engine. obs may be nil.
func NewAnalyzer(cfg Config, classifier sentiment.Classifier, log logger.Logger, obs *observability.Observability) *Analyzer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Analyzer{
		scorer: NewSentimentScorer(classifier, cfg.MaxTokens, cfg.ClassifierTimeout),
		obs:    obs,
		logger: log,
		now:    time.Now,
	}
}

// Analyze runs the full pipeline. On any error the result is nil.
func (a *Analyzer) Analyze(ctx context.Context, rs ResponseSet) (*AnalysisResult, error) {
	start := a.now()
	ctx, span := a.obs.StartSpan(ctx, "analysis.Analyze", attribute.Int("responses.count", len(rs)))
	defer span.End()

	result, err := a.analyze(ctx, rs)
	elapsed := a.now().Sub(start)

	if err != nil {
		code := string(apperrors.ErrCodeInternal)
		if stdErr, ok := apperrors.AsStandardError(err); ok {
			code = string(stdErr.Code)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		metrics.AnalysesFailed.WithLabelValues(code).Inc()
		metrics.AnalysisDuration.WithLabelValues("failure").Observe(elapsed.Seconds())
		a.obs.RecordAnalysis(ctx, "", 0, elapsed, "failure")
		a.logger.Warn("analysis produced no result", map[string]interface{}{
			"errorCode":  code,
			"error":      err,
			"durationMs": elapsed.Milliseconds(),
		})
		return nil, err
	}

	level := result.StressLevel.String()
	span.SetAttributes(
		attribute.String("analysis.id", result.AnalysisID),
		attribute.String("analysis.stress_level", level),
		attribute.Float64("analysis.score", result.Score),
	)
	metrics.AnalysesCompleted.WithLabelValues(level).Inc()
	metrics.AnalysisDuration.WithLabelValues("success").Observe(elapsed.Seconds())
	a.obs.RecordAnalysis(ctx, level, result.Score, elapsed, "success")
	a.logger.Info("analysis completed", map[string]interface{}{
		"analysisId":  result.AnalysisID,
		"stressLevel": level,
		"score":       result.Score,
		"compound":    result.AnalysisDetails.Sentiment.Compound,
		"durationMs":  elapsed.Milliseconds(),
	})
	return result, nil
}

func (a *Analyzer) analyze(ctx context.Context, rs ResponseSet) (*AnalysisResult, error) {
	if len(rs) == 0 {
		return nil, apperrors.NewInputMissingError("response set is empty")
	}
	// Blank answers still produce a result; empty text scores as neutral.
	text := CombinedText(rs)

	keywords := ExtractKeywords(text)
	profile, err := a.scorer.Score(ctx, text)
	if err != nil {
		return nil, err
	}
	patterns := AnalyzePatterns(text)

	score := StressScore(keywords, profile, patterns)
	level := LevelForScore(score)

	return &AnalysisResult{
		AnalysisID:      uuid.NewString(),
		StressLevel:     level,
		Score:           score,
		ImprovementTips: TipsFor(level),
		AnalysisDetails: AnalysisDetails{
			EmotionalKeywords: keywords,
			Sentiment:         profile,
			TextPatterns:      patterns,
		},
		AnalyzedAt: a.now().UTC(),
	}, nil
}
