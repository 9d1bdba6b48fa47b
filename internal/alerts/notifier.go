// Package alerts sends an anonymous notice when an analysis reaches the
// configured stress level. Notices carry the analysis id, level, score and
// time only. Answer text never leaves the service.
package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stresscheck/internal/analysis"
	awsclient "stresscheck/internal/common/aws"
	"stresscheck/internal/common/config"
	apperrors "stresscheck/internal/common/errors"
	"stresscheck/internal/common/logger"
	"stresscheck/internal/common/metrics"
)

const (
	ChannelSNS = "sns"
	ChannelSES = "ses"
)

// Publisher is satisfied by awsclient.SNSClient.
type Publisher interface {
	Publish(ctx context.Context, topicARN, subject, message string, attrs map[string]string) (string, error)
}

// Mailer is satisfied by awsclient.SESClient.
type Mailer interface {
	SendText(ctx context.Context, from string, to []string, subject, body string) (string, error)
}

// Notice is the whole payload of an alert.
type Notice struct {
	AnalysisID  string    `json:"analysisId"`
	StressLevel string    `json:"stressLevel"`
	Score       float64   `json:"score"`
	AnalyzedAt  time.Time `json:"analyzedAt"`
	Source      string    `json:"source"`
}

type Options struct {
	Threshold analysis.StressLevel

	Publisher Publisher
	TopicARN  string

	Mailer    Mailer
	FromEmail string
	To        []string

	Logger logger.Logger
}

// Notifier is nil-safe: a nil *Notifier never sends anything.
type Notifier struct {
	opts   Options
	logger logger.Logger
}

func NewNotifier(opts Options) *Notifier {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Notifier{opts: opts, logger: log.WithFields(map[string]interface{}{"component": "alerts"})}
}

// New builds a notifier from configuration. It returns nil when alerts are
// disabled or no channel is switched on.
func New(ctx context.Context, cfg config.AlertsConfig, alertLevel string, log logger.Logger) (*Notifier, error) {
	if !cfg.Enabled || (!cfg.SNS.Enabled && !cfg.SES.Enabled) {
		return nil, nil
	}

	threshold, err := analysis.ParseStressLevel(alertLevel)
	if err != nil {
		return nil, fmt.Errorf("analysis.alert_level: %w", err)
	}

	awsCfg, err := awsclient.LoadConfig(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}

	opts := Options{Threshold: threshold, Logger: log}
	if cfg.SNS.Enabled {
		opts.Publisher = awsclient.NewSNSClient(awsCfg)
		opts.TopicARN = cfg.SNS.TopicARN
	}
	if cfg.SES.Enabled {
		opts.Mailer = awsclient.NewSESClient(awsCfg)
		opts.FromEmail = cfg.SES.FromEmail
		opts.To = cfg.SES.To
	}
	return NewNotifier(opts), nil
}

// Notify sends res to every configured channel if its level is at or above
// the threshold. It reports whether a notice was due. A channel failure does
// not stop the other channel; all failures are returned joined.
func (n *Notifier) Notify(ctx context.Context, res *analysis.AnalysisResult, source string) (bool, error) {
	if n == nil || res == nil || res.StressLevel < n.opts.Threshold {
		return false, nil
	}

	notice := Notice{
		AnalysisID:  res.AnalysisID,
		StressLevel: res.StressLevel.String(),
		Score:       res.Score,
		AnalyzedAt:  res.AnalyzedAt,
		Source:      source,
	}
	body, err := json.Marshal(notice)
	if err != nil {
		return true, apperrors.NewInternalError(err)
	}
	subject := fmt.Sprintf("Stress check alert: %s", notice.StressLevel)

	var errs []error
	if n.opts.Publisher != nil {
		attrs := map[string]string{"stress_level": notice.StressLevel, "source": source}
		_, err := n.opts.Publisher.Publish(ctx, n.opts.TopicARN, subject, string(body), attrs)
		errs = append(errs, n.record(ChannelSNS, notice, err))
	}
	if n.opts.Mailer != nil {
		_, err := n.opts.Mailer.SendText(ctx, n.opts.FromEmail, n.opts.To, subject, formatEmail(notice))
		errs = append(errs, n.record(ChannelSES, notice, err))
	}
	return true, errors.Join(errs...)
}

func (n *Notifier) record(channel string, notice Notice, err error) error {
	if err != nil {
		metrics.AlertsSent.WithLabelValues(channel, "failure").Inc()
		return apperrors.NewAlertSendFailedError(channel, err)
	}
	metrics.AlertsSent.WithLabelValues(channel, "success").Inc()
	n.logger.Info("alert sent", map[string]interface{}{
		"channel":     channel,
		"analysisId":  notice.AnalysisID,
		"stressLevel": notice.StressLevel,
	})
	return nil
}

func formatEmail(n Notice) string {
	return fmt.Sprintf(
		"An anonymous stress check reached %q (score %.1f/10).\n\nAnalysis: %s\nSource: %s\nTime: %s\n",
		n.StressLevel, n.Score, n.AnalysisID, n.Source, n.AnalyzedAt.Format(time.RFC3339),
	)
}
