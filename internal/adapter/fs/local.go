package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"searchfox/internal/domain"
)

// LocalSource reads files from a local checkout of the indexed repository.
type LocalSource struct {
	root string
}

// DetectCheckout returns a LocalSource when root contains one of markers.
func DetectCheckout(root string, markers []string) (*LocalSource, bool) {
	if root == "" {
		return nil, false
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, false
	}
	for _, m := range markers {
		if _, err := os.Stat(filepath.Join(abs, m)); err == nil {
			return &LocalSource{root: abs}, true
		}
	}
	return nil, false
}

func (s *LocalSource) Root() string {
	return s.root
}

func (s *LocalSource) FetchFile(_ context.Context, path string) ([]string, error) {
	rel := filepath.FromSlash(strings.TrimPrefix(path, "/"))
	full := filepath.Join(s.root, rel)
	if !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: %s escapes the checkout", domain.ErrFileNotFound, path)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return nil, err
	}
	return domain.SplitLines(string(data)), nil
}
