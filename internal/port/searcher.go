package port

import (
	"context"

	"searchfox/internal/domain"
)

// SymbolSearcher returns the definition and declaration sites of a symbol.
type SymbolSearcher interface {
	SymbolHits(ctx context.Context, symbol, path string) ([]domain.SymbolHit, error)
}

// CallSearcher returns the direct callees or callers of a symbol.
type CallSearcher interface {
	Neighbors(ctx context.Context, symbol string, dir domain.Direction) ([]domain.SymbolHit, error)
}

type LayoutSearcher interface {
	FieldLayout(ctx context.Context, class string) (domain.FieldLayout, error)
}
