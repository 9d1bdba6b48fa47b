// Package transcript persists submitted questionnaire answers. Only the
// submissions themselves are kept; nothing here aggregates them over time.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stresscheck/internal/analysis"
	"stresscheck/internal/common/config"
	"stresscheck/internal/common/logger"
)

const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// TimestampLayout is the local ISO-8601 form written under the timestamp key.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Transcript is one persisted submission.
type Transcript struct {
	ID          string               `json:"id,omitempty"`
	Responses   analysis.ResponseSet `json:"responses"`
	SubmittedAt time.Time            `json:"submittedAt"`
}

// Store saves submissions and returns the most recent one.
type Store interface {
	Save(ctx context.Context, rs analysis.ResponseSet) (*Transcript, error)
	Latest(ctx context.Context) (*Transcript, error)
	Close() error
}

// New builds the store selected by cfg.Store. db is only used by the postgres
// store and may be nil otherwise.
func New(ctx context.Context, cfg config.TranscriptConfig, db *sql.DB, log logger.Logger) (Store, error) {
	switch cfg.Store {
	case StoreFile, "":
		return NewFileStore(cfg.Path, log), nil
	case StoreSQLite:
		return NewSQLiteStore(ctx, cfg.Path, log)
	case StorePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres transcript store needs a database connection")
		}
		return NewPostgresStore(ctx, db, log)
	default:
		return nil, fmt.Errorf("unknown transcript store %q", cfg.Store)
	}
}

// Stamp returns a copy of rs with the submission time under the timestamp
// key. A client-supplied timestamp is replaced by the server's.
func Stamp(rs analysis.ResponseSet, at time.Time) analysis.ResponseSet {
	out := make(analysis.ResponseSet, len(rs)+1)
	for k, v := range rs {
		out[k] = v
	}
	out[analysis.TimestampKey] = at.Format(TimestampLayout)
	return out
}

// submittedAt reads the timestamp key back. Unparseable or missing values
// give the zero time.
func submittedAt(rs analysis.ResponseSet) time.Time {
	raw, ok := rs[analysis.TimestampKey]
	if !ok {
		return time.Time{}
	}
	for _, layout := range []string{TimestampLayout, "2006-01-02T15:04:05", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
