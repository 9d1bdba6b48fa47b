package sentiment

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	apperrors "stresscheck/internal/common/errors"
	commonhttp "stresscheck/internal/common/http"
	"stresscheck/internal/common/logger"
)

// DefaultModel is the SST-2 model served when no model is configured.
const DefaultModel = "distilbert-base-uncased-finetuned-sst-2-english"

const inferenceBaseURL = "https://api-inference.huggingface.co/models/"

// HTTPConfig points the classifier at a hosted text-classification model.
// URL, when set, wins over the endpoint derived from Model.
type HTTPConfig struct {
	URL      string
	Model    string
	APIToken string
	Timeout  time.Duration
}

// HTTPClassifier calls a Hugging Face style inference endpoint serving a
// two-label SST-2 model. One request per call, no retries.
type HTTPClassifier struct {
	url     string
	model   string
	token   string
	timeout time.Duration
	client  *commonhttp.Client
	logger  logger.Logger
}

func NewHTTPClassifier(cfg HTTPConfig, log logger.Logger) *HTTPClassifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.URL == "" {
		cfg.URL = inferenceBaseURL + cfg.Model
	}
	return &HTTPClassifier{
		url:     cfg.URL,
		model:   cfg.Model,
		token:   cfg.APIToken,
		timeout: cfg.Timeout,
		client:  commonhttp.NewClient(cfg.Timeout),
		logger:  log,
	}
}

func (c *HTTPClassifier) Name() string { return BackendHTTP }

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	Truncation bool `json:"truncation"`
	MaxLength  int  `json:"max_length"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, text string, maxLength int) (float64, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	headers := map[string]string{}
	if c.token != "" {
		headers["Authorization"] = "Bearer " + c.token
	}

	body, err := c.client.PostJSON(ctx, c.url, headers, inferenceRequest{
		Inputs:     text,
		Parameters: inferenceParameters{Truncation: true, MaxLength: maxLength},
	})
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, 0, apperrors.NewClassifierTimeoutError(BackendHTTP, c.timeout)
		}
		c.logger.Warn("sentiment classifier request failed", map[string]interface{}{
			"url":   c.url,
			"model": c.model,
			"error": err,
		})
		return 0, 0, apperrors.NewClassifierUnavailableError(BackendHTTP, err)
	}

	neg, pos, err := parseInferenceResponse(body)
	if err != nil {
		return 0, 0, apperrors.NewClassifierUnavailableError(BackendHTTP, err)
	}
	return neg, pos, nil
}

// parseInferenceResponse accepts both [[{label,score},...]] and
// [{label,score},...].
func parseInferenceResponse(body []byte) (float64, float64, error) {
	var nested [][]labelScore
	var scores []labelScore
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 {
		scores = nested[0]
	} else {
		var flat []labelScore
		if err := json.Unmarshal(body, &flat); err != nil {
			return 0, 0, fmt.Errorf("decode classifier response: %w", err)
		}
		scores = flat
	}

	var neg, pos float64
	var haveNeg, havePos bool
	for _, s := range scores {
		switch strings.ToUpper(s.Label) {
		case "NEGATIVE", "LABEL_0":
			neg, haveNeg = s.Score, true
		case "POSITIVE", "LABEL_1":
			pos, havePos = s.Score, true
		}
	}

	switch {
	case haveNeg && havePos:
	case haveNeg:
		pos = 1 - neg
	case havePos:
		neg = 1 - pos
	default:
		return 0, 0, fmt.Errorf("classifier response has no NEGATIVE/POSITIVE labels")
	}

	if !ValidDistribution(neg, pos) {
		return 0, 0, fmt.Errorf("classifier scores neg=%.4f pos=%.4f are not a distribution", neg, pos)
	}
	return neg, pos, nil
}
