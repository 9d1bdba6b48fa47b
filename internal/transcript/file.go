package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stresscheck/internal/analysis"
	apperrors "stresscheck/internal/common/errors"
	"stresscheck/internal/common/logger"
)

// FileStore keeps the latest submission in a single JSON file. Every save
// replaces the previous one.
type FileStore struct {
	path   string
	logger logger.Logger
	now    func() time.Time

	mu sync.Mutex
}

func NewFileStore(path string, log logger.Logger) *FileStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &FileStore{
		path:   path,
		logger: log.WithFields(map[string]interface{}{"store": StoreFile}),
		now:    time.Now,
	}
}

func (s *FileStore) Save(ctx context.Context, rs analysis.ResponseSet) (*Transcript, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTranscriptSaveFailedError(StoreFile, err)
	}

	now := s.now()
	stamped := Stamp(rs, now)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stamped); err != nil {
		return nil, apperrors.NewTranscriptSaveFailedError(StoreFile, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.path, buf.Bytes()); err != nil {
		s.logger.Error("failed to write transcript", map[string]interface{}{
			"path":  s.path,
			"error": err,
		})
		return nil, apperrors.NewTranscriptSaveFailedError(StoreFile, err)
	}

	s.logger.Debug("transcript saved", map[string]interface{}{
		"path":      s.path,
		"responses": len(rs),
	})
	return &Transcript{Responses: stamped, SubmittedAt: submittedAt(stamped)}, nil
}

func (s *FileStore) Latest(ctx context.Context) (*Transcript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	raw, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperrors.NewTranscriptNotFoundError(s.path)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	rs, err := analysis.ParseResponseSet(raw)
	if err != nil {
		return nil, err
	}
	return &Transcript{Responses: rs, SubmittedAt: submittedAt(rs)}, nil
}

func (s *FileStore) Close() error { return nil }

// writeAtomic writes to a sibling temp file and renames it over path so a
// reader never sees a half-written transcript.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
