package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
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
)

type MockAnalyzer struct{ mock.Mock }

func (m *MockAnalyzer) Analyze(ctx context.Context, rs analysis.ResponseSet) (*analysis.AnalysisResult, error) {
	args := m.Called(ctx, rs)
	res, _ := args.Get(0).(*analysis.AnalysisResult)
	return res, args.Error(1)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Notify(ctx context.Context, res *analysis.AnalysisResult, source string) (bool, error) {
	args := m.Called(ctx, res, source)
	return args.Bool(0), args.Error(1)
}

type failingStore struct{}

func (failingStore) Save(context.Context, analysis.ResponseSet) (*transcript.Transcript, error) {
	return nil, apperrors.NewTranscriptSaveFailedError("file", errors.New("disk full"))
}
func (failingStore) Latest(context.Context) (*transcript.Transcript, error) { return nil, nil }
func (failingStore) Close() error                                           { return nil }

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	if opts.Logger == nil {
		opts.Logger = logger.NewTestLogger(t)
	}
	srv := httptest.NewServer(NewRouter(opts))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestQuestions(t *testing.T) {
	srv := newTestServer(t, Options{Analyzer: new(MockAnalyzer)})

	resp, err := http.Get(srv.URL + "/api/questions")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var qs []string
	decode(t, resp, &qs)
	assert.Equal(t, analysis.Questions(), qs)
}

func TestSaveResponse_EndToEndWithLexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_chat_log.json")
	store := transcript.NewFileStore(path, nil)
	a := analysis.NewAnalyzer(analysis.Config{MaxTokens: 512, ClassifierTimeout: time.Second},
		sentiment.NewLexiconClassifier(), logger.NewTestLogger(t), nil)

	srv := newTestServer(t, Options{Analyzer: a, Store: store})
	resp := post(t, srv.URL+"/api/save-response",
		`{"Do you often feel stressed or overwhelmed? When does it happen the most?": "I am so stressed and overwhelmed, I can't sleep..."}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, savedMessage, body["message"])

	result, ok := body["analysis"].(map[string]interface{})
	require.True(t, ok, "analysis present")
	assert.Contains(t, []interface{}{"Mild Stress", "High Stress"}, result["stress_level"])

	latest, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Contains(t, latest.Responses, analysis.TimestampKey)
}

func TestSaveResponse_BlankAnswersAreAnalyzed(t *testing.T) {
	store := transcript.NewFileStore(filepath.Join(t.TempDir(), "log.json"), nil)
	a := analysis.NewAnalyzer(analysis.Config{MaxTokens: 512, ClassifierTimeout: time.Second},
		sentiment.NewLexiconClassifier(), logger.NewTestLogger(t), nil)

	srv := newTestServer(t, Options{Analyzer: a, Store: store})
	resp := post(t, srv.URL+"/api/save-response", `{"How are you?": "", "What is on your mind?": "  "}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	decode(t, resp, &body)

	result, ok := body["analysis"].(map[string]interface{})
	require.True(t, ok, "analysis present")
	assert.Equal(t, "Stable", result["stress_level"])
}

func TestSaveResponse_AnalyzerInputErrorGivesNullAnalysis(t *testing.T) {
	an := new(MockAnalyzer)
	an.On("Analyze", mock.Anything, mock.Anything).Return(nil, apperrors.NewInputMissingError("no text"))
	store := transcript.NewFileStore(filepath.Join(t.TempDir(), "log.json"), nil)

	srv := newTestServer(t, Options{Analyzer: an, Store: store})
	resp := post(t, srv.URL+"/api/save-response", `{}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Contains(t, body, "analysis")
	assert.Nil(t, body["analysis"])
}

func TestSaveResponse_MalformedBody(t *testing.T) {
	an := new(MockAnalyzer)
	store := transcript.NewFileStore(filepath.Join(t.TempDir(), "log.json"), nil)
	srv := newTestServer(t, Options{Analyzer: an, Store: store})

	tests := []struct {
		name string
		body string
		code string
	}{
		{"array", `["a"]`, "INPUT_MALFORMED"},
		{"number answer", `{"q": 1}`, "INPUT_MALFORMED"},
		{"broken json", `{"q":`, "INPUT_MALFORMED"},
		{"empty", ``, "INPUT_MISSING"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/save-response", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body errorBody
			decode(t, resp, &body)
			assert.Equal(t, tt.code, body.Code)
		})
	}
	an.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestSaveResponse_StoreFailure(t *testing.T) {
	an := new(MockAnalyzer)
	srv := newTestServer(t, Options{Analyzer: an, Store: failingStore{}})

	resp := post(t, srv.URL+"/api/save-response", `{"q": "fine"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	an.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestSaveResponse_NoStore(t *testing.T) {
	srv := newTestServer(t, Options{Analyzer: new(MockAnalyzer)})
	resp := post(t, srv.URL+"/api/save-response", `{"q": "fine"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAnalyze_ClassifierUnavailable(t *testing.T) {
	an := new(MockAnalyzer)
	an.On("Analyze", mock.Anything, analysis.ResponseSet{"q": "fine"}).
		Return(nil, apperrors.NewClassifierUnavailableError("http", errors.New("502"))).Once()

	srv := newTestServer(t, Options{Analyzer: an})
	resp := post(t, srv.URL+"/api/analyze", `{"q": "fine"}`)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body errorBody
	decode(t, resp, &body)
	assert.Equal(t, "CLASSIFIER_UNAVAILABLE", body.Code)
	an.AssertExpectations(t)
}

func TestAnalyze_NotifiesOnResult(t *testing.T) {
	res := &analysis.AnalysisResult{AnalysisID: "a-1", StressLevel: analysis.Critical, ImprovementTips: analysis.TipsFor(analysis.Critical)}
	an := new(MockAnalyzer)
	an.On("Analyze", mock.Anything, mock.Anything).Return(res, nil)
	n := new(MockNotifier)
	n.On("Notify", mock.Anything, res, "api").Return(true, errors.New("sns throttled")).Once()

	srv := newTestServer(t, Options{Analyzer: an, Notifier: n})
	resp := post(t, srv.URL+"/api/analyze", `{"q": "everything is too much"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode, "alert failures never change the outcome")
	var body map[string]map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, "Critical", body["analysis"]["stress_level"])
	n.AssertExpectations(t)
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	srv := newTestServer(t, Options{Analyzer: new(MockAnalyzer), MaxBodyBytes: 16})
	resp := post(t, srv.URL+"/api/analyze", `{"q": "this body is longer than sixteen bytes"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, Options{Analyzer: new(MockAnalyzer), AllowedOrigins: []string{"http://localhost:3000"}})

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/save-response", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/questions", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealthReadyMetrics(t *testing.T) {
	srv := newTestServer(t, Options{
		Analyzer: new(MockAnalyzer),
		ReadinessChecks: map[string]ReadinessCheck{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		},
	})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	var ready map[string]interface{}
	decode(t, resp, &ready)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "not ready", ready["status"])

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, Options{Analyzer: new(MockAnalyzer), RateLimitRPS: 0.001, RateLimitBurst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Get(srv.URL + "/api/questions")
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
