// Package searchfox talks to a searchfox.org instance over HTTP.
package searchfox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"searchfox/internal/domain"
)

// Version is reported in the user agent.
var Version = "0.1.0"

const (
	DefaultBaseURL    = "https://searchfox.org"
	DefaultRawBaseURL = "https://raw.githubusercontent.com"
	DefaultRepo       = "mozilla-central"
	magicWordEnv      = "SEARCHFOX_MAGIC_WORD"
	defaultMagicWord  = "sésame ouvre toi"
)

var tracer = otel.Tracer("searchfox/client")

type Options struct {
	BaseURL           string
	RawBaseURL        string
	Repo              string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	LogRequests       bool
	Logger            *slog.Logger
}

type Client struct {
	baseURL     string
	rawBaseURL  string
	repo        string
	userAgent   string
	logRequests bool
	limiter     *rate.Limiter
	http        *http.Client
	log         *slog.Logger
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RawBaseURL == "" {
		opts.RawBaseURL = DefaultRawBaseURL
	}
	if opts.Repo == "" {
		opts.Repo = DefaultRepo
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		baseURL:     opts.BaseURL,
		rawBaseURL:  opts.RawBaseURL,
		repo:        opts.Repo,
		userAgent:   opts.UserAgent,
		logRequests: opts.LogRequests,
		limiter:     rate.NewLimiter(limit, 1),
		http:        &http.Client{Timeout: opts.Timeout},
		log:         opts.Logger,
	}
}

// UserAgent builds the default agent string. SEARCHFOX_MAGIC_WORD overrides
// the parenthesised suffix.
func UserAgent() string {
	word := os.Getenv(magicWordEnv)
	if word == "" {
		word = defaultMagicWord
	}
	return fmt.Sprintf("searchfox-cli/%s (%s)", Version, word)
}

func (c *Client) Repo() string {
	return c.repo
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, c.repo, path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// get performs a GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, rawURL string, accept string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "searchfox.get", trace.WithAttributes(
		attribute.String("http.url", rawURL),
		attribute.String("searchfox.repo", c.repo),
	))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	id := uuid.NewString()[:8]
	start := time.Now()
	c.logStart(ctx, id, req.Method, rawURL)

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.logEnd(ctx, id, req.Method, rawURL, resp.StatusCode, len(body), time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode), attribute.Int("http.response_size", len(body)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		span.SetStatus(codes.Error, resp.Status)
		return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, rawURL)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		span.SetStatus(codes.Error, resp.Status)
		return nil, fmt.Errorf("searchfox returned status %d: %s", resp.StatusCode, preview(body))
	}
	return body, nil
}

func (c *Client) logStart(ctx context.Context, id, method, u string) {
	level := slog.LevelDebug
	if c.logRequests {
		level = slog.LevelInfo
	}
	c.log.Log(ctx, level, "REQ start", "id", id, "method", method, "url", u)
}

func (c *Client) logEnd(ctx context.Context, id, method, u string, status, size int, d time.Duration) {
	level := slog.LevelDebug
	if c.logRequests {
		level = slog.LevelInfo
	}
	c.log.Log(ctx, level, "REQ end", "id", id, "method", method, "url", u,
		"status", status, "bytes", size, "duration_ms", d.Milliseconds())
}

// Ping measures the latency of a HEAD request to the base URL.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ping %s: %w", c.baseURL, err)
	}
	resp.Body.Close()
	latency := time.Since(start)
	c.log.Info("PING", "url", c.baseURL, "status", resp.StatusCode, "latency_ms", latency.Milliseconds())
	return latency, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
