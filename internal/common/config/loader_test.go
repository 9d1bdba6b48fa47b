package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: stresscheck\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Address)
	assert.Equal(t, "lexicon", cfg.Classifier.Backend)
	assert.Equal(t, 512, cfg.Classifier.MaxTokens)
	assert.Equal(t, 10000, cfg.Classifier.Timeout)
	assert.Equal(t, "file", cfg.Transcript.Store)
	assert.Equal(t, "user_chat_log.json", cfg.Transcript.Path)
	assert.Equal(t, "Critical", cfg.Analysis.AlertLevel)
	assert.Equal(t, "stresscheck", cfg.Observability.ServiceName)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("STRESSCHECK_TEST_CLASSIFIER_URL", "http://classifier.local/models/sst2")
	path := writeConfig(t, `
classifier:
  backend: http
  url: ${STRESSCHECK_TEST_CLASSIFIER_URL}
  timeout: 2500
workers:
  analyze-stress-responses:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://classifier.local/models/sst2", cfg.Classifier.URL)
	assert.Equal(t, 2500*time.Millisecond, GetDuration(cfg.Classifier.Timeout))

	w := GetWorkerConfig(cfg, "analyze-stress-responses")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown classifier backend",
			body:    "classifier:\n  backend: vader\n",
			wantErr: "classifier.backend",
		},
		{
			name:    "http backend without url",
			body:    "classifier:\n  backend: http\n",
			wantErr: "classifier.url",
		},
		{
			name:    "postgres store without host",
			body:    "transcript:\n  store: postgres\n",
			wantErr: "database.postgres.host",
		},
		{
			name:    "cache without redis",
			body:    "classifier:\n  cache:\n    enabled: true\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "camunda enabled without broker",
			body:    "camunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{}
	w := GetWorkerConfig(cfg, "unknown")
	assert.True(t, w.Enabled)
	assert.Equal(t, 30000, w.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "unknown"))
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "stresscheck", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=stresscheck sslmode=disable", p.GetDSN())
}
