package cli

import (
	"fmt"
	"log/slog"

	"searchfox/config"
	"searchfox/internal/adapter/analyzer"
	"searchfox/internal/adapter/cache"
	"searchfox/internal/adapter/fs"
	"searchfox/internal/adapter/searchfox"
	"searchfox/internal/adapter/store"
	"searchfox/internal/port"
	"searchfox/internal/usecase"
)

// services holds the collaborators shared by every command.
type services struct {
	cfg      *config.Config
	client   *searchfox.Client
	searcher cache.Searcher
	source   port.TextSource
	files    *store.FileCache
}

func newServices(cfg *config.Config, logger *slog.Logger) (*services, error) {
	if bad, ok := fs.ValidatePatterns(cfg.Search.Excludes); !ok {
		return nil, fmt.Errorf("invalid search.excludes pattern %q", bad)
	}

	client := searchfox.NewClient(searchfox.Options{
		BaseURL:           cfg.Client.BaseURL,
		RawBaseURL:        cfg.Client.RawBaseURL,
		Repo:              cfg.Repo,
		UserAgent:         cfg.Client.UserAgent,
		Timeout:           cfg.Client.Timeout,
		RequestsPerSecond: cfg.Client.RequestsPerSecond,
		LogRequests:       cfg.Logging.LogRequests,
		Logger:            logger,
	})
	s := &services{cfg: cfg, client: client, searcher: client}

	var fileStore fs.FileStore
	if cfg.Cache.Enabled {
		s.searcher = cache.NewCachedSearcher(client, cfg.Cache.MemoryEntries, cfg.Cache.TTL)

		path, err := cfg.CacheDBPath()
		if err != nil {
			logger.Warn("file cache disabled", "error", err)
		} else if files, err := store.NewFileCache(path, cfg.Cache.TTL); err != nil {
			logger.Warn("file cache disabled", "path", path, "error", err)
		} else {
			res, err := files.Prepare(cfg)
			if err != nil {
				files.Close()
				return nil, fmt.Errorf("prepare file cache: %w", err)
			}
			if res.NeedsClear {
				logger.Info("file cache cleared", "reason", res.Reason)
			}
			s.files = files
			fileStore = files
		}
	}

	var local port.TextSource
	if src, ok := fs.DetectCheckout(cfg.Local.Root, cfg.Local.Markers); ok {
		logger.Debug("using local checkout", "root", src.Root())
		local = src
	}
	s.source = fs.NewLayeredSource(cfg.Repo, local, fileStore, client, logger)
	return s, nil
}

func (s *services) Close() error {
	if s.files != nil {
		return s.files.Close()
	}
	return nil
}

func (s *services) define() *usecase.DefineUseCase {
	ext := analyzer.NewExtractor(analyzer.ExtractorConfig{
		MaxLines:        s.cfg.Extract.MaxLines,
		Lookahead:       s.cfg.Extract.Lookahead,
		SignatureWindow: s.cfg.Extract.SignatureWindow,
	})
	return usecase.NewDefineUseCase(s.searcher, s.source, ext, s.cfg.Extract.ContextLines, slog.Default())
}

func (s *services) callGraph() *usecase.CallGraphUseCase {
	return usecase.NewCallGraphUseCase(s.searcher, s.searcher, s.cfg.Client.Concurrency)
}

func (s *services) search() *usecase.SearchUseCase {
	return usecase.NewSearchUseCase(s.client, fs.NewPathFilter(nil, s.cfg.Search.Excludes), s.cfg.Search.AllowFulltext)
}

func (s *services) fieldLayout() *usecase.FieldLayoutUseCase {
	return usecase.NewFieldLayoutUseCase(s.client)
}
