package usecase

import (
	"context"
	"fmt"

	"searchfox/internal/adapter/fs"
	"searchfox/internal/adapter/searchfox"
	"searchfox/internal/domain"
	"searchfox/internal/port"
)

type textSearcher interface {
	Search(ctx context.Context, opts searchfox.SearchOptions) ([]domain.SearchResult, error)
}

// SearchUseCase runs text, symbol and path searches.
type SearchUseCase struct {
	searcher      textSearcher
	filter        *fs.PathFilter
	allowFulltext bool
}

func NewSearchUseCase(searcher textSearcher, filter *fs.PathFilter, allowFulltext bool) *SearchUseCase {
	if filter == nil {
		filter = fs.NewPathFilter(nil, nil)
	}
	return &SearchUseCase{searcher: searcher, filter: filter, allowFulltext: allowFulltext}
}

// Search refuses full-text queries with no path restriction unless they
// are allowed, then drops results under excluded paths.
func (u *SearchUseCase) Search(ctx context.Context, opts searchfox.SearchOptions) ([]domain.SearchResult, error) {
	ctx, span := tracer.Start(ctx, "search")
	defer span.End()

	if opts.IsExpensive() && opts.Path == "" && !u.allowFulltext {
		return nil, fmt.Errorf("%w: %q", domain.ErrExpensiveSearch, opts.Query)
	}
	results, err := u.searcher.Search(ctx, opts)
	if err != nil {
		return nil, err
	}
	kept := results[:0]
	for _, r := range results {
		if u.filter.Allow(r.Path) {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// FieldLayoutUseCase fetches class memory layouts.
type FieldLayoutUseCase struct {
	layouts port.LayoutSearcher
}

func NewFieldLayoutUseCase(layouts port.LayoutSearcher) *FieldLayoutUseCase {
	return &FieldLayoutUseCase{layouts: layouts}
}

func (u *FieldLayoutUseCase) Layout(ctx context.Context, class string) (domain.FieldLayout, error) {
	ctx, span := tracer.Start(ctx, "field-layout")
	defer span.End()
	return u.layouts.FieldLayout(ctx, class)
}
