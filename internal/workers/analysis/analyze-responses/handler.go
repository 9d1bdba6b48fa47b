// internal/workers/analysis/analyze-responses/handler.go
package analyzeresponses

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"stresscheck/internal/analysis"
	"stresscheck/internal/common/errors"
	"stresscheck/internal/common/logger"
	"stresscheck/internal/common/metrics"
	"stresscheck/internal/common/validation"
	"stresscheck/internal/transcript"
	"stresscheck/pkg/registry"
)

const (
	TaskType = registry.TaskAnalyzeResponses
)

type Analyzer interface {
	Analyze(ctx context.Context, rs analysis.ResponseSet) (*analysis.AnalysisResult, error)
}

// TranscriptFinder looks a stored submission up by id. *transcript.SQLStore
// satisfies it.
type TranscriptFinder interface {
	Get(ctx context.Context, id string) (*transcript.Transcript, error)
}

type Notifier interface {
	Notify(ctx context.Context, res *analysis.AnalysisResult, source string) (bool, error)
}

type Handler struct {
	config       *Config
	analyzer     Analyzer
	transcripts  TranscriptFinder
	notifier     Notifier
	validator    *validation.SchemaValidator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

type HandlerOptions struct {
	Config      *Config
	Registry    *registry.ActivityRegistry
	Analyzer    Analyzer
	Transcripts TranscriptFinder
	Notifier    Notifier
	Logger      logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("%s: analyzer is required", TaskType)
	}
	reg := opts.Registry
	if reg == nil {
		var err error
		if reg, err = registry.Default(); err != nil {
			return nil, err
		}
	}
	act, err := reg.FindByTaskType(TaskType)
	if err != nil {
		return nil, err
	}
	validator, err := validation.NewSchemaValidator(act.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("%s: input schema: %w", TaskType, err)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = LoadConfig(reg, 0, 0)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		analyzer:     opts.Analyzer,
		transcripts:  opts.Transcripts,
		notifier:     opts.Notifier,
		validator:    validator,
		errorHandler: errors.NewErrorHandler(log).WithRetryBudget(cfg.MaxRetries),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput([]byte(job.Variables))
	if err != nil {
		h.logger.Warn("job variables rejected", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		h.completeJob(ctx, client, job, unavailable(err))
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(raw []byte) (*Input, error) {
	res, err := h.validator.ValidateBytes(raw)
	if err != nil {
		return nil, errors.NewInputMalformedError(err.Error())
	}
	if !res.Valid {
		return nil, errors.NewInputMalformedError(strings.Join(res.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInputMalformedError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	rs, err := h.resolveResponses(ctx, input)
	if err != nil {
		if errors.IsInputError(err) || errors.HasCode(err, errors.ErrCodeTranscriptNotFound) {
			return unavailable(err), nil
		}
		return nil, err
	}

	result, err := h.analyzer.Analyze(ctx, rs)
	if err != nil {
		if errors.IsInputError(err) {
			return unavailable(err), nil
		}
		return nil, err
	}

	if h.notifier != nil {
		if _, err := h.notifier.Notify(ctx, result, "worker"); err != nil {
			h.logger.Warn("stress alert not delivered", map[string]interface{}{
				"analysisId": result.AnalysisID,
				"error":      err,
			})
		}
	}

	return &Output{
		AnalysisAvailable: true,
		StressLevel:       result.StressLevel.String(),
		Analysis:          result,
	}, nil
}

func (h *Handler) resolveResponses(ctx context.Context, input *Input) (analysis.ResponseSet, error) {
	raw := bytes.TrimSpace(input.Responses)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		return analysis.ParseResponseSet(raw)
	}

	if input.SubmissionID != "" && h.transcripts != nil {
		t, err := h.transcripts.Get(ctx, input.SubmissionID)
		if err != nil {
			return nil, err
		}
		return t.Responses, nil
	}
	return nil, errors.NewInputMissingError("neither responses nor a resolvable submissionId given")
}

func unavailable(err error) *Output {
	reason := string(errors.ErrCodeInputMissing)
	if stdErr, ok := errors.AsStandardError(err); ok {
		reason = string(stdErr.Code)
	}
	return &Output{AnalysisAvailable: false, Reason: reason}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	code := string(errors.ErrCodeInternal)
	if stdErr, ok := errors.AsStandardError(err); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":            job.Key,
		"analysisAvailable": output.AnalysisAvailable,
		"stressLevel":       output.StressLevel,
	})
}

// Execute runs the task without a Zeebe client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
