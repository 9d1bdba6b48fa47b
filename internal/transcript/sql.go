package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"stresscheck/internal/analysis"
	apperrors "stresscheck/internal/common/errors"
	"stresscheck/internal/common/logger"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS transcripts (
		id           UUID PRIMARY KEY,
		responses    JSONB NOT NULL,
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transcripts_submitted_at ON transcripts (submitted_at DESC)`,
}

var sqliteSchema = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	`CREATE TABLE IF NOT EXISTS transcripts (
		id           TEXT PRIMARY KEY,
		responses    TEXT NOT NULL,
		submitted_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transcripts_submitted_at ON transcripts (submitted_at DESC)`,
}

// dialect carries what differs between the two SQL backends.
type dialect struct {
	name     string
	insert   string
	latest   string
	byID     string
	bindTime func(time.Time) interface{}
}

var postgresDialect = dialect{
	name:     StorePostgres,
	insert:   `INSERT INTO transcripts (id, responses, submitted_at) VALUES ($1, $2, $3)`,
	latest:   `SELECT id, responses, submitted_at FROM transcripts ORDER BY submitted_at DESC LIMIT 1`,
	byID:     `SELECT id, responses, submitted_at FROM transcripts WHERE id = $1`,
	bindTime: func(t time.Time) interface{} { return t },
}

var sqliteDialect = dialect{
	name:     StoreSQLite,
	insert:   `INSERT INTO transcripts (id, responses, submitted_at) VALUES (?, ?, ?)`,
	latest:   `SELECT id, responses, submitted_at FROM transcripts ORDER BY submitted_at DESC LIMIT 1`,
	byID:     `SELECT id, responses, submitted_at FROM transcripts WHERE id = ?`,
	bindTime: func(t time.Time) interface{} { return t.UTC().Format(time.RFC3339Nano) },
}

// SQLStore keeps every submission as one row of the transcripts table.
type SQLStore struct {
	db      *sql.DB
	d       dialect
	ownsDB  bool
	logger  logger.Logger
	now     func() time.Time
	newUUID func() string
}

// NewPostgresStore uses an existing pool and creates the table if needed.
func NewPostgresStore(ctx context.Context, db *sql.DB, log logger.Logger) (*SQLStore, error) {
	s := newSQLStore(db, postgresDialect, false, log)
	if err := s.migrate(ctx, postgresSchema); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore opens (or creates) the database file at path.
func NewSQLiteStore(ctx context.Context, path string, log logger.Logger) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("transcript: open sqlite: %w", err)
	}
	// one writer keeps WAL mode free of SQLITE_BUSY under concurrent saves
	db.SetMaxOpenConns(1)

	s := newSQLStore(db, sqliteDialect, true, log)
	if err := s.migrate(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newSQLStore(db *sql.DB, d dialect, ownsDB bool, log logger.Logger) *SQLStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &SQLStore{
		db:      db,
		d:       d,
		ownsDB:  ownsDB,
		logger:  log.WithFields(map[string]interface{}{"store": d.name}),
		now:     time.Now,
		newUUID: uuid.NewString,
	}
}

func (s *SQLStore) migrate(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("transcript: migrate %s: %w", s.d.name, err)
		}
	}
	return nil
}

func (s *SQLStore) Save(ctx context.Context, rs analysis.ResponseSet) (*Transcript, error) {
	now := s.now()
	stamped := Stamp(rs, now)

	raw, err := json.Marshal(stamped)
	if err != nil {
		return nil, apperrors.NewTranscriptSaveFailedError(s.d.name, err)
	}

	t := &Transcript{
		ID:          s.newUUID(),
		Responses:   stamped,
		SubmittedAt: now.UTC(),
	}
	if _, err := s.db.ExecContext(ctx, s.d.insert, t.ID, string(raw), s.d.bindTime(t.SubmittedAt)); err != nil {
		s.logger.Error("failed to insert transcript", map[string]interface{}{
			"transcriptId": t.ID,
			"error":        err,
		})
		return nil, apperrors.NewTranscriptSaveFailedError(s.d.name, err)
	}

	s.logger.Debug("transcript saved", map[string]interface{}{
		"transcriptId": t.ID,
		"responses":    len(rs),
	})
	return t, nil
}

func (s *SQLStore) Latest(ctx context.Context) (*Transcript, error) {
	t, err := s.scan(s.db.QueryRowContext(ctx, s.d.latest))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewTranscriptNotFoundError("latest")
	}
	return t, err
}

// Get returns the submission with the given id.
func (s *SQLStore) Get(ctx context.Context, id string) (*Transcript, error) {
	t, err := s.scan(s.db.QueryRowContext(ctx, s.d.byID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewTranscriptNotFoundError(id)
	}
	return t, err
}

func (s *SQLStore) scan(row *sql.Row) (*Transcript, error) {
	var (
		id  string
		raw []byte
		at  interface{}
	)
	if err := row.Scan(&id, &raw, &at); err != nil {
		return nil, err
	}

	rs, err := analysis.ParseResponseSet(raw)
	if err != nil {
		return nil, err
	}
	submitted, err := asTime(at)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("transcript %s: %w", id, err))
	}
	return &Transcript{ID: id, Responses: rs, SubmittedAt: submitted}, nil
}

func (s *SQLStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

func asTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case []byte:
		return time.Parse(time.RFC3339Nano, string(t))
	default:
		return time.Time{}, fmt.Errorf("unexpected submitted_at type %T", v)
	}
}
