package analyzeresponses

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stresscheck/internal/analysis"
	apperrors "stresscheck/internal/common/errors"
	"stresscheck/internal/common/logger"
	"stresscheck/internal/sentiment"
	"stresscheck/internal/transcript"
	"stresscheck/pkg/registry"
)

type MockAnalyzer struct{ mock.Mock }

func (m *MockAnalyzer) Analyze(ctx context.Context, rs analysis.ResponseSet) (*analysis.AnalysisResult, error) {
	args := m.Called(ctx, rs)
	res, _ := args.Get(0).(*analysis.AnalysisResult)
	return res, args.Error(1)
}

type MockFinder struct{ mock.Mock }

func (m *MockFinder) Get(ctx context.Context, id string) (*transcript.Transcript, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*transcript.Transcript)
	return t, args.Error(1)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Notify(ctx context.Context, res *analysis.AnalysisResult, source string) (bool, error) {
	args := m.Called(ctx, res, source)
	return args.Bool(0), args.Error(1)
}

func newHandler(t *testing.T, a Analyzer, f TranscriptFinder, n Notifier) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		Config:      &Config{Timeout: time.Second},
		Analyzer:    a,
		Transcripts: f,
		Notifier:    n,
		Logger:      logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

func TestHandler_Execute_Success(t *testing.T) {
	res := &analysis.AnalysisResult{AnalysisID: "a-1", StressLevel: analysis.HighStress}
	a := new(MockAnalyzer)
	a.On("Analyze", mock.Anything, analysis.ResponseSet{"q": "I am stressed"}).Return(res, nil).Once()
	n := new(MockNotifier)
	n.On("Notify", mock.Anything, res, "worker").Return(true, nil).Once()

	h := newHandler(t, a, nil, n)
	out, err := h.Execute(context.Background(), &Input{Responses: json.RawMessage(`{"q":"I am stressed"}`)})

	require.NoError(t, err)
	assert.True(t, out.AnalysisAvailable)
	assert.Equal(t, "High Stress", out.StressLevel)
	assert.Same(t, res, out.Analysis)
	a.AssertExpectations(t)
	n.AssertExpectations(t)
}

func TestHandler_Execute_NotifyFailureIsNotFatal(t *testing.T) {
	res := &analysis.AnalysisResult{AnalysisID: "a-2", StressLevel: analysis.Critical}
	a := new(MockAnalyzer)
	a.On("Analyze", mock.Anything, mock.Anything).Return(res, nil)
	n := new(MockNotifier)
	n.On("Notify", mock.Anything, res, "worker").Return(false, errors.New("sns down"))

	h := newHandler(t, a, nil, n)
	out, err := h.Execute(context.Background(), &Input{Responses: json.RawMessage(`{"q":"too much"}`)})

	require.NoError(t, err)
	assert.True(t, out.AnalysisAvailable)
}

func TestHandler_Execute_MissingResponses(t *testing.T) {
	a := new(MockAnalyzer)
	h := newHandler(t, a, nil, nil)

	for _, in := range []*Input{
		{},
		{Responses: json.RawMessage(`null`)},
		{SubmissionID: "abc"},
	} {
		out, err := h.Execute(context.Background(), in)
		require.NoError(t, err)
		assert.False(t, out.AnalysisAvailable)
		assert.Equal(t, "INPUT_MISSING", out.Reason)
		assert.Nil(t, out.Analysis)
	}
	a.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestHandler_Execute_MalformedResponses(t *testing.T) {
	h := newHandler(t, new(MockAnalyzer), nil, nil)

	out, err := h.Execute(context.Background(), &Input{Responses: json.RawMessage(`["a"]`)})

	require.NoError(t, err)
	assert.False(t, out.AnalysisAvailable)
	assert.Equal(t, "INPUT_MALFORMED", out.Reason)
}

func TestHandler_Execute_AnalyzerInputError(t *testing.T) {
	a := new(MockAnalyzer)
	a.On("Analyze", mock.Anything, mock.Anything).Return(nil, apperrors.NewInputMissingError("no text"))

	h := newHandler(t, a, nil, nil)
	out, err := h.Execute(context.Background(), &Input{Responses: json.RawMessage(`{}`)})

	require.NoError(t, err)
	assert.False(t, out.AnalysisAvailable)
	assert.Equal(t, "INPUT_MISSING", out.Reason)
}

func TestHandler_Execute_TimestampOnlyIsStable(t *testing.T) {
	a := analysis.NewAnalyzer(analysis.Config{MaxTokens: 512, ClassifierTimeout: time.Second},
		sentiment.NewLexiconClassifier(), logger.NewTestLogger(t), nil)

	h := newHandler(t, a, nil, nil)
	out, err := h.Execute(context.Background(), &Input{Responses: json.RawMessage(`{"timestamp":"2024-01-01T00:00:00.000000"}`)})

	require.NoError(t, err)
	assert.True(t, out.AnalysisAvailable)
	assert.Equal(t, "Stable", out.StressLevel)
}

func TestHandler_Execute_ClassifierErrorPropagates(t *testing.T) {
	a := new(MockAnalyzer)
	a.On("Analyze", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewClassifierUnavailableError("http", errors.New("502")))

	h := newHandler(t, a, nil, nil)
	out, err := h.Execute(context.Background(), &Input{Responses: json.RawMessage(`{"q":"fine"}`)})

	assert.Nil(t, out)
	assert.True(t, apperrors.IsClassifierError(err))
}

func TestHandler_Execute_LoadsStoredSubmission(t *testing.T) {
	stored := &transcript.Transcript{ID: "sub-1", Responses: analysis.ResponseSet{"q": "I feel calm"}}
	f := new(MockFinder)
	f.On("Get", mock.Anything, "sub-1").Return(stored, nil).Once()
	res := &analysis.AnalysisResult{AnalysisID: "a-3", StressLevel: analysis.Stable}
	a := new(MockAnalyzer)
	a.On("Analyze", mock.Anything, stored.Responses).Return(res, nil).Once()

	h := newHandler(t, a, f, nil)
	out, err := h.Execute(context.Background(), &Input{SubmissionID: "sub-1"})

	require.NoError(t, err)
	assert.True(t, out.AnalysisAvailable)
	f.AssertExpectations(t)
	a.AssertExpectations(t)
}

func TestHandler_Execute_UnknownSubmission(t *testing.T) {
	f := new(MockFinder)
	f.On("Get", mock.Anything, "nope").Return(nil, apperrors.NewTranscriptNotFoundError("nope"))

	a := new(MockAnalyzer)
	h := newHandler(t, a, f, nil)
	out, err := h.Execute(context.Background(), &Input{SubmissionID: "nope"})

	require.NoError(t, err)
	assert.False(t, out.AnalysisAvailable)
	assert.Equal(t, "TRANSCRIPT_NOT_FOUND", out.Reason)
	a.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestHandler_Execute_StoreFailurePropagates(t *testing.T) {
	f := new(MockFinder)
	f.On("Get", mock.Anything, "sub-2").Return(nil, apperrors.NewTranscriptSaveFailedError("postgres", errors.New("connection reset")))

	h := newHandler(t, new(MockAnalyzer), f, nil)
	out, err := h.Execute(context.Background(), &Input{SubmissionID: "sub-2"})

	assert.Nil(t, out)
	assert.Error(t, err)
	assert.False(t, apperrors.IsInputError(err))
}

func TestHandler_Execute_WithLexiconClassifier(t *testing.T) {
	a := analysis.NewAnalyzer(analysis.Config{MaxTokens: 512, ClassifierTimeout: time.Second},
		sentiment.NewLexiconClassifier(), logger.NewTestLogger(t), nil)

	h := newHandler(t, a, nil, nil)
	out, err := h.Execute(context.Background(), &Input{
		Responses: json.RawMessage(`{"How are you sleeping?":"I am so stressed and overwhelmed, I can't sleep..."}`),
	})

	require.NoError(t, err)
	require.True(t, out.AnalysisAvailable)
	assert.NotEqual(t, "Stable", out.StressLevel)
	assert.NotEmpty(t, out.Analysis.ImprovementTips)
}

func TestHandler_ParseInput_SchemaViolation(t *testing.T) {
	h := newHandler(t, new(MockAnalyzer), nil, nil)

	_, err := h.parseInput([]byte(`{"responses":{"q":3}}`))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInputMalformed))

	in, err := h.parseInput([]byte(`{"submissionId":"sub-9"}`))
	require.NoError(t, err)
	assert.Equal(t, "sub-9", in.SubmissionID)
}

func TestNewHandler_RequiresAnalyzer(t *testing.T) {
	_, err := NewHandler(HandlerOptions{})
	assert.Error(t, err)
}

func TestLoadConfig_UsesRegistryTimeout(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, LoadConfig(reg, 5*time.Second, 0).Timeout)
	assert.Equal(t, 5*time.Second, LoadConfig(nil, 5*time.Second, 0).Timeout)
	assert.Equal(t, 30*time.Second, LoadConfig(nil, 0, 0).Timeout)
}

func TestLoadConfig_RetryBudget(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)

	assert.Equal(t, 1, LoadConfig(reg, 0, 1).MaxRetries)
	assert.Equal(t, 3, LoadConfig(reg, 0, 0).MaxRetries)
	assert.Equal(t, 0, LoadConfig(nil, 0, -2).MaxRetries)
}
