// Package sentiment provides binary sentiment classifiers that report the
// NEGATIVE and POSITIVE class probabilities for a piece of text.
package sentiment

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stresscheck/internal/common/config"
	"stresscheck/internal/common/logger"
	"stresscheck/internal/common/metrics"
)

// Classifier scores text. maxLength is the token budget; implementations
// truncate longer input. neg and pos are probabilities in [0,1].
type Classifier interface {
	Classify(ctx context.Context, text string, maxLength int) (neg, pos float64, err error)
	Name() string
}

const (
	BackendHTTP    = "http"
	BackendLexicon = "lexicon"
)

// distributionTolerance bounds how far neg+pos may drift from 1.
const distributionTolerance = 1e-3

// ValidDistribution reports whether (neg, pos) form a two-class distribution.
func ValidDistribution(neg, pos float64) bool {
	if math.IsNaN(neg) || math.IsNaN(pos) {
		return false
	}
	if neg < 0 || neg > 1 || pos < 0 || pos > 1 {
		return false
	}
	return math.Abs(neg+pos-1) <= distributionTolerance
}

// Options carries the collaborators New may wire in.
type Options struct {
	Redis  redis.Cmdable
	Tracer trace.Tracer
	Logger logger.Logger
}

// New builds the classifier chain described by cfg: the selected backend,
// wrapped in the Redis cache when enabled, wrapped in tracing and metrics.
func New(cfg config.ClassifierConfig, opts Options) (Classifier, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	var base Classifier
	switch cfg.Backend {
	case BackendHTTP:
		base = NewHTTPClassifier(HTTPConfig{
			URL:      cfg.URL,
			Model:    cfg.Model,
			APIToken: cfg.APIToken,
			Timeout:  config.GetDuration(cfg.Timeout),
		}, log)
	case BackendLexicon, "":
		base = NewLexiconClassifier()
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}

	if cfg.Cache.Enabled && opts.Redis != nil {
		base = NewCachedClassifier(base, opts.Redis, time.Duration(cfg.Cache.TTL)*time.Second, log)
	}

	return NewInstrumented(base, opts.Tracer), nil
}

// Instrumented records a span and a duration sample around each call.
type Instrumented struct {
	next   Classifier
	tracer trace.Tracer
}

func NewInstrumented(next Classifier, tracer trace.Tracer) *Instrumented {
	return &Instrumented{next: next, tracer: tracer}
}

func (c *Instrumented) Name() string { return c.next.Name() }

func (c *Instrumented) Classify(ctx context.Context, text string, maxLength int) (float64, float64, error) {
	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.Start(ctx, "sentiment.Classify", trace.WithAttributes(
			attribute.String("classifier.backend", c.next.Name()),
			attribute.Int("classifier.max_length", maxLength),
			attribute.Int("text.length", len(text)),
		))
		defer span.End()
	}

	start := time.Now()
	neg, pos, err := c.next.Classify(ctx, text, maxLength)

	outcome := "success"
	if err != nil {
		outcome = "error"
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	metrics.ClassifierCallDuration.WithLabelValues(c.next.Name(), outcome).Observe(time.Since(start).Seconds())

	return neg, pos, err
}
