package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"searchfox/internal/adapter/analyzer"
	"searchfox/internal/adapter/report"
	"searchfox/internal/domain"
	"searchfox/internal/port"
)

var tracer = otel.Tracer("searchfox/usecase")

// DefineUseCase prints the complete definition of a symbol.
type DefineUseCase struct {
	symbols      port.SymbolSearcher
	source       port.TextSource
	extractor    *analyzer.Extractor
	contextLines int
	logger       *slog.Logger
}

// NewDefineUseCase creates a new define use case.
func NewDefineUseCase(
	symbols port.SymbolSearcher,
	source port.TextSource,
	extractor *analyzer.Extractor,
	contextLines int,
	logger *slog.Logger,
) *DefineUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefineUseCase{
		symbols:      symbols,
		source:       source,
		extractor:    extractor,
		contextLines: contextLines,
		logger:       logger,
	}
}

// Define looks symbol up, groups the hits by scope and renders the unit at
// each group's primary location. A unit that cannot be extracted is shown
// as a context window with the reason.
func (u *DefineUseCase) Define(ctx context.Context, symbol, path string) (string, error) {
	ctx, span := tracer.Start(ctx, "define")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	groups, err := resolve(ctx, u.symbols, symbol, path)
	if err != nil {
		return "", err
	}
	if len(groups) == 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrNoMatchingSymbol, symbol)
	}

	files := make(map[string][]string)
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(report.GroupHeader(g))
		b.WriteByte('\n')

		shown := make(map[string]bool)
		for _, v := range g.Variants {
			hit, ok := v.Primary()
			if !ok || shown[hit.Location()] {
				continue
			}
			shown[hit.Location()] = true

			text, err := u.render(ctx, files, hit)
			if err != nil {
				return "", err
			}
			b.WriteString(text)
		}
	}
	return b.String(), nil
}

func (u *DefineUseCase) render(ctx context.Context, files map[string][]string, hit domain.SymbolHit) (string, error) {
	lines, ok := files[hit.FilePath]
	if !ok {
		var err error
		lines, err = u.source.FetchFile(ctx, hit.FilePath)
		if errors.Is(err, domain.ErrFileNotFound) {
			return fmt.Sprintf("%s (%s)\n", hit.Location(), report.ErrorMessage(err)), nil
		}
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", hit.FilePath, err)
		}
		files[hit.FilePath] = lines
	}

	line := hit.Line
	if moved, ok := analyzer.Relocate(lines, hit.Line, hit.BaseName()); ok && moved != hit.Line {
		u.logger.Debug("relocated symbol", "path", hit.FilePath, "from", hit.Line, "to", moved)
		line = moved
	}

	unit, err := u.extractor.Extract(lines, line, hit.FilePath)
	if err != nil {
		u.logger.Debug("extraction failed", "path", hit.FilePath, "line", line, "error", err)
		return report.Context(hit.FilePath, lines, line, u.contextLines, err), nil
	}
	return report.Unit(hit.FilePath, lines, unit), nil
}

// resolve turns a symbol into scope groups. A qualified name narrows the
// groups to those whose qualified path ends with it.
func resolve(ctx context.Context, symbols port.SymbolSearcher, symbol, path string) ([]domain.ScopeGroup, error) {
	hits, err := symbols.SymbolHits(ctx, symbol, path)
	if err != nil {
		return nil, err
	}
	groups := analyzer.Group(hits)
	if strings.Contains(symbol, "::") {
		if narrowed := analyzer.GroupByName(groups, symbol); len(narrowed) > 0 {
			return narrowed, nil
		}
	}
	return groups, nil
}
