package fs

import (
	"context"
	"errors"
	"log/slog"

	"searchfox/internal/domain"
	"searchfox/internal/port"
)

// FileStore is the persistent cache a LayeredSource consults before the
// network.
type FileStore interface {
	Get(repo, path string) ([]string, bool, error)
	Put(repo, path string, lines []string) error
}

// LayeredSource reads a file from the local checkout, then the file cache,
// then the remote source.
type LayeredSource struct {
	repo   string
	local  port.TextSource
	store  FileStore
	remote port.TextSource
	logger *slog.Logger
}

// NewLayeredSource builds a source over remote. local and store may be nil.
func NewLayeredSource(repo string, local port.TextSource, store FileStore, remote port.TextSource, logger *slog.Logger) *LayeredSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &LayeredSource{repo: repo, local: local, store: store, remote: remote, logger: logger}
}

func (s *LayeredSource) FetchFile(ctx context.Context, path string) ([]string, error) {
	if s.local != nil {
		lines, err := s.local.FetchFile(ctx, path)
		if err == nil {
			s.logger.Debug("file from local checkout", "path", path)
			return lines, nil
		}
		if !errors.Is(err, domain.ErrFileNotFound) {
			return nil, err
		}
	}

	if s.store != nil {
		lines, ok, err := s.store.Get(s.repo, path)
		if err != nil {
			s.logger.Warn("file cache read failed", "path", path, "error", err)
		} else if ok {
			s.logger.Debug("file from cache", "path", path)
			return lines, nil
		}
	}

	lines, err := s.remote.FetchFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.Put(s.repo, path, lines); err != nil {
			s.logger.Warn("file cache write failed", "path", path, "error", err)
		}
	}
	return lines, nil
}
