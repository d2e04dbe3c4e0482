package usecase

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"searchfox/internal/adapter/analyzer"
	"searchfox/internal/domain"
	"searchfox/internal/port"
)

// CallGraphUseCase answers calls-from, calls-to and calls-between queries.
type CallGraphUseCase struct {
	symbols     port.SymbolSearcher
	calls       port.CallSearcher
	concurrency int
	onLevel     analyzer.LevelFunc
}

func NewCallGraphUseCase(symbols port.SymbolSearcher, calls port.CallSearcher, concurrency int) *CallGraphUseCase {
	if concurrency < 1 {
		concurrency = 1
	}
	return &CallGraphUseCase{symbols: symbols, calls: calls, concurrency: concurrency}
}

// OnLevel registers a progress callback run after each traversal level.
func (u *CallGraphUseCase) OnLevel(fn analyzer.LevelFunc) *CallGraphUseCase {
	u.onLevel = fn
	return u
}

func (u *CallGraphUseCase) traversal() *analyzer.Traversal {
	return analyzer.NewTraversal(u.expand).OnLevel(u.onLevel)
}

// expand queries the neighbours of every frontier group, at most
// concurrency requests at a time.
func (u *CallGraphUseCase) expand(ctx context.Context, dir domain.Direction, frontier []domain.ScopeGroup) (map[string][]domain.SymbolHit, error) {
	out := make(map[string][]domain.SymbolHit, len(frontier))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for _, sg := range frontier {
		name := sg.QualifiedName()
		g.Go(func() error {
			hits, err := u.calls.Neighbors(ctx, name, dir)
			if err != nil {
				return fmt.Errorf("%s %s: %w", dir, name, err)
			}
			mu.Lock()
			out[name] = hits
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (u *CallGraphUseCase) CallsFrom(ctx context.Context, symbol string, depth int) ([]domain.CallGraph, error) {
	return u.run(ctx, symbol, depth, domain.CallsFrom)
}

func (u *CallGraphUseCase) CallsTo(ctx context.Context, symbol string, depth int) ([]domain.CallGraph, error) {
	return u.run(ctx, symbol, depth, domain.CallsTo)
}

func (u *CallGraphUseCase) run(ctx context.Context, symbol string, depth int, dir domain.Direction) ([]domain.CallGraph, error) {
	ctx, span := tracer.Start(ctx, string(dir))
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol), attribute.Int("depth", depth))

	if depth < 1 {
		return nil, fmt.Errorf("%w: got %d", analyzer.ErrInvalidDepth, depth)
	}
	seeds, err := resolve(ctx, u.symbols, symbol, "")
	if err != nil {
		return nil, err
	}
	return u.traversal().Traverse(ctx, seeds, depth, dir)
}

// CallsBetween returns the edges on call paths from source into target.
// Both are matched as scope prefixes of the qualified names.
func (u *CallGraphUseCase) CallsBetween(ctx context.Context, source, target string, depth int) ([]domain.CallEdge, error) {
	ctx, span := tracer.Start(ctx, "calls-between")
	defer span.End()
	span.SetAttributes(attribute.String("source", source), attribute.String("target", target), attribute.Int("depth", depth))

	if depth < 1 {
		return nil, fmt.Errorf("%w: got %d", analyzer.ErrInvalidDepth, depth)
	}
	sourceSeeds, err := resolve(ctx, u.symbols, source, "")
	if err != nil {
		return nil, err
	}
	targetSeeds, err := resolve(ctx, u.symbols, target, "")
	if err != nil {
		return nil, err
	}
	return u.traversal().Between(ctx,
		domain.ParseScopePath(source), domain.ParseScopePath(target),
		sourceSeeds, targetSeeds, depth)
}
