// internal/workers/analysis/analyze-responses/config.go
package analyzeresponses

import (
	"time"

	"stresscheck/pkg/registry"
)

type Config struct {
	Timeout time.Duration
	// MaxRetries caps how often a retryable failure is handed back to the
	// broker. Zero keeps the per-error-code counts.
	MaxRetries int
}

// LoadConfig takes the job timeout from the activity registry, falling back
// to the worker setting. The worker's max_retries wins over the activity's
// retries.
func LoadConfig(reg *registry.ActivityRegistry, workerTimeout time.Duration, workerRetries int) *Config {
	if workerTimeout <= 0 {
		workerTimeout = 30 * time.Second
	}
	cfg := &Config{Timeout: workerTimeout, MaxRetries: max(workerRetries, 0)}
	if reg == nil {
		return cfg
	}
	if act, err := reg.FindByTaskType(TaskType); err == nil {
		cfg.Timeout = act.TimeoutDuration(workerTimeout)
		if cfg.MaxRetries == 0 && act.Retries > 0 {
			cfg.MaxRetries = act.Retries
		}
	}
	return cfg
}
