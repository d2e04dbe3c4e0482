package searchfox

import (
	"context"
	"fmt"
	"strings"

	"searchfox/internal/domain"
)

type rawRepo struct {
	github string
	branch string
}

var rawRepos = map[string]rawRepo{
	"mozilla-central": {"mozilla/firefox", "main"},
	"autoland":        {"mozilla/firefox", "autoland"},
	"mozilla-beta":    {"mozilla/firefox", "beta"},
	"mozilla-release": {"mozilla/firefox", "release"},
	"mozilla-esr115":  {"mozilla/firefox", "esr115"},
	"mozilla-esr128":  {"mozilla/firefox", "esr128"},
	"mozilla-esr140":  {"mozilla/firefox", "esr140"},
	"comm-central":    {"mozilla/releases-comm-central", "main"},
}

// RawURL returns the raw file URL for path in the client's repository.
// Unknown repositories fall back to the main firefox branch.
func (c *Client) RawURL(path string) string {
	r, ok := rawRepos[c.repo]
	if !ok {
		r = rawRepos["mozilla-central"]
	}
	return fmt.Sprintf("%s/%s/%s/%s", c.rawBaseURL, r.github, r.branch, strings.TrimPrefix(path, "/"))
}

// FetchFile downloads path and splits it into lines.
func (c *Client) FetchFile(ctx context.Context, path string) ([]string, error) {
	body, err := c.get(ctx, c.RawURL(path), "")
	if err != nil {
		return nil, err
	}
	return domain.SplitLines(string(body)), nil
}
