package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stresscheck/internal/analysis"
	"stresscheck/internal/common/config"
	apperrors "stresscheck/internal/common/errors"
	"stresscheck/internal/common/logger"
)

var fixedNow = time.Date(2026, 10, 1, 9, 30, 0, 123456000, time.Local)

func sampleResponses() analysis.ResponseSet {
	return analysis.ResponseSet{
		"How have you been feeling lately? Can you describe it in a few words?": "Pretty calm <3",
		"What's one thing that has been on your mind a lot recently?":           "Exams",
	}
}

func TestStamp_AddsTimestampWithoutMutating(t *testing.T) {
	rs := sampleResponses()
	stamped := Stamp(rs, fixedNow)

	assert.Equal(t, "2026-10-01T09:30:00.123456", stamped[analysis.TimestampKey])
	assert.NotContains(t, rs, analysis.TimestampKey)
}

func TestStamp_OverwritesClientTimestamp(t *testing.T) {
	rs := sampleResponses()
	rs[analysis.TimestampKey] = "1999-01-01T00:00:00"

	stamped := Stamp(rs, fixedNow)
	assert.Equal(t, "2026-10-01T09:30:00.123456", stamped[analysis.TimestampKey])
	assert.Equal(t, "1999-01-01T00:00:00", rs[analysis.TimestampKey])
}

func TestFileStore_Save_UsesServerTime(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "user_chat_log.json"), logger.NewTestLogger(t))
	s.now = func() time.Time { return fixedNow }

	rs := sampleResponses()
	rs[analysis.TimestampKey] = "1999-01-01T00:00:00"
	saved, err := s.Save(context.Background(), rs)
	require.NoError(t, err)

	assert.Equal(t, "2026-10-01T09:30:00.123456", saved.Responses[analysis.TimestampKey])
	assert.True(t, saved.SubmittedAt.Equal(fixedNow.Truncate(time.Microsecond)))
}

func TestFileStore_SaveThenLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_chat_log.json")
	s := NewFileStore(path, logger.NewTestLogger(t))
	s.now = func() time.Time { return fixedNow }

	saved, err := s.Save(context.Background(), sampleResponses())
	require.NoError(t, err)
	assert.True(t, saved.SubmittedAt.Equal(fixedNow.Truncate(time.Microsecond)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Pretty calm <3", "html characters stay unescaped")
	assert.Contains(t, string(raw), "\n  \"", "file is indented")

	var onDisk map[string]string
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Len(t, onDisk, 3)

	latest, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, saved.Responses, latest.Responses)
	assert.True(t, latest.SubmittedAt.Equal(saved.SubmittedAt))
}

func TestFileStore_SaveReplacesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	s := NewFileStore(path, logger.NewNoOpLogger())

	_, err := s.Save(context.Background(), analysis.ResponseSet{"q": "first"})
	require.NoError(t, err)
	_, err = s.Save(context.Background(), analysis.ResponseSet{"q": "second"})
	require.NoError(t, err)

	latest, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", latest.Responses["q"])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileStore_LatestMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "absent.json"), nil)

	_, err := s.Latest(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTranscriptNotFound), "got %v", err)
}

func TestFileStore_LatestMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`["not", "an", "object"]`), 0o600))

	_, err := NewFileStore(path, nil).Latest(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInputMalformed), "got %v", err)
}

func TestFileStore_SaveToMissingDirectory(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope", "log.json"), nil)

	_, err := s.Save(context.Background(), sampleResponses())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTranscriptSaveFailed), "got %v", err)
}

func TestSQLiteStore_SaveGetLatest(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "transcripts.db"), logger.NewTestLogger(t))
	require.NoError(t, err)
	defer s.Close()

	tick := fixedNow
	s.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	first, err := s.Save(ctx, analysis.ResponseSet{"q": "first"})
	require.NoError(t, err)
	second, err := s.Save(ctx, analysis.ResponseSet{"q": "second"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Responses["q"])
	assert.True(t, got.SubmittedAt.Equal(first.SubmittedAt))

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	_, err = s.Get(ctx, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTranscriptNotFound))
}

func TestSQLiteStore_LatestEmpty(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "empty.db"), nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Latest(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTranscriptNotFound))
}

func newMockPostgresStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS transcripts`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_transcripts_submitted_at`).WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := NewPostgresStore(context.Background(), db, logger.NewTestLogger(t))
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	s.newUUID = func() string { return "6f1c1f9e-2f7a-4e43-9a43-0c6f2c9f6b10" }
	return s, mock
}

func TestPostgresStore_Save(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO transcripts`).
		WithArgs("6f1c1f9e-2f7a-4e43-9a43-0c6f2c9f6b10", sqlmock.AnyArg(), fixedNow.UTC()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	saved, err := s.Save(context.Background(), sampleResponses())
	require.NoError(t, err)
	assert.Equal(t, "6f1c1f9e-2f7a-4e43-9a43-0c6f2c9f6b10", saved.ID)
	assert.Contains(t, saved.Responses, analysis.TimestampKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveFailure(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO transcripts`).WillReturnError(errors.New("connection reset"))

	saved, err := s.Save(context.Background(), sampleResponses())
	assert.Nil(t, saved)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTranscriptSaveFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Latest(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	at := fixedNow.UTC()
	mock.ExpectQuery(`SELECT id, responses, submitted_at FROM transcripts ORDER BY submitted_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "responses", "submitted_at"}).
			AddRow("abc", []byte(`{"q": "fine", "timestamp": "2026-10-01T09:30:00"}`), at))

	latest, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", latest.ID)
	assert.Equal(t, "fine", latest.Responses["q"])
	assert.True(t, latest.SubmittedAt.Equal(at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, responses, submitted_at FROM transcripts WHERE id`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "responses", "submitted_at"}))

	_, err := s.Get(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTranscriptNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_SelectsStore(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, config.TranscriptConfig{Store: StoreFile, Path: filepath.Join(t.TempDir(), "a.json")}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = New(ctx, config.TranscriptConfig{Store: StorePostgres}, nil, nil)
	assert.Error(t, err)

	_, err = New(ctx, config.TranscriptConfig{Store: "s3"}, nil, nil)
	assert.Error(t, err)
}
