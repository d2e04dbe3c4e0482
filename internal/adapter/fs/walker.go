package fs

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PathFilter matches repository-relative paths against doublestar globs.
type PathFilter struct {
	includes []string
	excludes []string
}

func NewPathFilter(includes, excludes []string) *PathFilter {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &PathFilter{
		includes: includes,
		excludes: excludes,
	}
}

// Allow reports whether path is included and not excluded.
func (f *PathFilter) Allow(path string) bool {
	path = strings.TrimPrefix(path, "/")
	return f.shouldInclude(path) && !f.shouldExclude(path)
}

func (f *PathFilter) shouldInclude(path string) bool {
	for _, pattern := range f.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (f *PathFilter) shouldExclude(path string) bool {
	for _, pattern := range f.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// ValidatePatterns returns the first malformed pattern, if any.
func ValidatePatterns(patterns []string) (string, bool) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return p, false
		}
	}
	return "", true
}
