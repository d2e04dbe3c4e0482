package analyzer

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dominikbraun/graph"

	"searchfox/internal/domain"
)

// ExpandFunc fetches the direct neighbours of every group in the frontier,
// keyed by the group's qualified name.
type ExpandFunc func(ctx context.Context, dir domain.Direction, frontier []domain.ScopeGroup) (map[string][]domain.SymbolHit, error)

// LevelFunc is notified after each traversal level completes.
type LevelFunc func(level, edges int)

// Traversal walks a call graph breadth-first, one level per expansion.
type Traversal struct {
	expand  ExpandFunc
	onLevel LevelFunc
}

func NewTraversal(expand ExpandFunc) *Traversal {
	return &Traversal{expand: expand}
}

// OnLevel registers a callback invoked after each level.
func (t *Traversal) OnLevel(fn LevelFunc) *Traversal {
	t.onLevel = fn
	return t
}

// Traverse builds one call graph per seed, following edges in dir up to
// depth levels. Every seed candidate gets its own graph.
func (t *Traversal) Traverse(ctx context.Context, seeds []domain.ScopeGroup, depth int, dir domain.Direction) ([]domain.CallGraph, error) {
	if depth < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDepth, depth)
	}
	graphs := make([]domain.CallGraph, 0, len(seeds))
	for _, seed := range seeds {
		cg, err := t.walk(ctx, seed, depth, dir)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, cg)
	}
	return graphs, nil
}

func (t *Traversal) walk(ctx context.Context, seed domain.ScopeGroup, depth int, dir domain.Direction) (domain.CallGraph, error) {
	cg := domain.CallGraph{Seed: seed, Direction: dir, Depth: depth}
	g := graph.New(func(sg domain.ScopeGroup) string { return sg.QualifiedName() }, graph.Directed())
	_ = g.AddVertex(seed)

	visited := make(map[string]bool)
	for _, key := range variantKeys(seed) {
		visited[key] = true
	}

	frontier := []domain.ScopeGroup{seed}
	for level := 1; level <= depth && len(frontier) > 0; level++ {
		if err := ctx.Err(); err != nil {
			return cg, err
		}
		batch, err := t.expand(ctx, dir, frontier)
		if err != nil {
			return cg, fmt.Errorf("expand level %d: %w", level, err)
		}
		cg.DepthReached = level

		var next []domain.ScopeGroup
		for _, from := range frontier {
			for _, to := range Group(batch[from.QualifiedName()]) {
				caller, callee := from, to
				if dir == domain.CallsTo {
					caller, callee = to, from
				}
				if err := g.AddVertex(to); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
					return cg, err
				}
				err := g.AddEdge(caller.QualifiedName(), callee.QualifiedName())
				if errors.Is(err, graph.ErrEdgeAlreadyExists) {
					continue
				}
				if err != nil {
					return cg, err
				}
				site, _ := to.Primary()
				cg.Edges = append(cg.Edges, domain.CallEdge{
					Caller:   caller.QualifiedPath(),
					Callee:   callee.QualifiedPath(),
					Site:     site,
					Level:    level,
					Neighbor: to,
				})

				fresh := false
				for _, key := range variantKeys(to) {
					if !visited[key] {
						visited[key] = true
						fresh = true
					}
				}
				if fresh {
					next = append(next, to)
					cg.Nodes = append(cg.Nodes, to)
				}
			}
		}
		if t.onLevel != nil {
			t.onLevel(level, len(cg.Edges))
		}
		frontier = next
	}
	return cg, nil
}

// Between returns the edges on call paths from the source scope into the
// target scope: the union of calls-from source and calls-to target, keeping
// only edges whose caller lies under source and callee under target.
func (t *Traversal) Between(ctx context.Context, source, target domain.ScopePath, sourceSeeds, targetSeeds []domain.ScopeGroup, depth int) ([]domain.CallEdge, error) {
	from, err := t.Traverse(ctx, sourceSeeds, depth, domain.CallsFrom)
	if err != nil {
		return nil, err
	}
	to, err := t.Traverse(ctx, targetSeeds, depth, domain.CallsTo)
	if err != nil {
		return nil, err
	}

	type pair struct{ caller, callee string }
	seen := make(map[pair]bool)
	var edges []domain.CallEdge
	for _, cg := range slices.Concat(from, to) {
		for _, e := range cg.Edges {
			if !e.Caller.HasPrefix(source) || !e.Callee.HasPrefix(target) {
				continue
			}
			p := pair{e.Caller.String(), e.Callee.String()}
			if seen[p] {
				continue
			}
			seen[p] = true
			edges = append(edges, e)
		}
	}
	return edges, nil
}

func variantKeys(g domain.ScopeGroup) []string {
	name := g.QualifiedName()
	if len(g.Variants) == 0 {
		return []string{name}
	}
	keys := make([]string, len(g.Variants))
	for i, v := range g.Variants {
		keys[i] = name + "\x00" + v.Signature
	}
	return keys
}
