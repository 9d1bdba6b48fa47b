package analysis

import (
	"context"
	stderrors "errors"
	"math"
	"time"

	apperrors "stresscheck/internal/common/errors"
	"stresscheck/internal/segment"
	"stresscheck/internal/sentiment"
)

// SentimentScorer turns classifier probabilities into a SentimentProfile.
type SentimentScorer struct {
	classifier sentiment.Classifier
	maxTokens  int
	timeout    time.Duration
}

func NewSentimentScorer(classifier sentiment.Classifier, maxTokens int, timeout time.Duration) *SentimentScorer {
	if maxTokens < 1 {
		maxTokens = DefaultMaxTokens
	}
	if timeout <= 0 {
		timeout = DefaultClassifierTimeout
	}
	return &SentimentScorer{classifier: classifier, maxTokens: maxTokens, timeout: timeout}
}

// Score makes exactly one classifier call under the scorer's deadline.
func (s *SentimentScorer) Score(ctx context.Context, text string) (SentimentProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	neg, pos, err := s.classifier.Classify(ctx, segment.TruncateTokens(text, s.maxTokens), s.maxTokens)
	if err != nil {
		return SentimentProfile{}, s.classifierError(ctx, err)
	}
	if !sentiment.ValidDistribution(neg, pos) {
		return SentimentProfile{}, apperrors.NewClassifierUnavailableError(
			s.classifier.Name(),
			stderrors.New("classifier returned scores that are not a probability distribution"),
		)
	}
	return ProfileFromProbabilities(neg, pos), nil
}

func (s *SentimentScorer) classifierError(ctx context.Context, err error) error {
	if apperrors.IsClassifierError(err) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewClassifierTimeoutError(s.classifier.Name(), s.timeout)
	}
	return apperrors.NewClassifierUnavailableError(s.classifier.Name(), err)
}

// ProfileFromProbabilities derives neu = 1 - |pos - neg|, renormalizes the
// three parts to sum to 1 and sets compound = pos - neg on the raw values.
func ProfileFromProbabilities(neg, pos float64) SentimentProfile {
	neu := 1 - math.Abs(pos-neg)
	total := pos + neg + neu
	if total <= 0 {
		return SentimentProfile{Neu: 1}
	}
	return SentimentProfile{
		Pos:      pos / total,
		Neu:      neu / total,
		Neg:      neg / total,
		Compound: pos - neg,
	}
}
