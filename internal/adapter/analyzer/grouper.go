package analyzer

import (
	"slices"
	"strconv"
	"strings"

	"searchfox/internal/domain"
)

// Group collapses symbol hits into scope groups, one per scope path and base
// name, with overloads kept apart as variants. Groups are ordered by scope
// path; groups sharing a scope path keep the order they were first seen in.
func Group(hits []domain.SymbolHit) []domain.ScopeGroup {
	var groups []domain.ScopeGroup
	byKey := make(map[string]int)
	variantIdx := make(map[string]int)
	seen := make(map[string]bool)

	for _, h := range hits {
		base := h.BaseName()
		gkey := strings.Join(append(slices.Clone([]string(h.ScopePath)), base), "\x00")
		gi, ok := byKey[gkey]
		if !ok {
			gi = len(groups)
			byKey[gkey] = gi
			groups = append(groups, domain.ScopeGroup{
				ScopePath: slices.Clone(h.ScopePath),
				Name:      base,
			})
		}
		g := &groups[gi]

		sig := h.Signature()
		hkey := strings.Join([]string{gkey, string(h.Kind), h.FilePath, strconv.Itoa(h.Line), sig}, "\x01")
		if seen[hkey] {
			continue
		}
		seen[hkey] = true

		vkey := gkey + "\x01" + sig
		vi, ok := variantIdx[vkey]
		if !ok {
			vi = len(g.Variants)
			variantIdx[vkey] = vi
			g.Variants = append(g.Variants, domain.OverloadVariant{Signature: sig})
		}
		v := &g.Variants[vi]
		if v.MangledName == "" {
			v.MangledName = h.MangledName
		}

		switch h.Kind {
		case domain.Definition:
			v.Definitions = append(v.Definitions, h)
			g.Definitions = append(g.Definitions, h)
		default:
			v.Declarations = append(v.Declarations, h)
			g.Declarations = append(g.Declarations, h)
		}
	}

	slices.SortStableFunc(groups, func(a, b domain.ScopeGroup) int {
		return slices.Compare(a.ScopePath, b.ScopePath)
	})
	return groups
}

// GroupByName returns the groups whose qualified name ends with name, split
// on "::". A bare name matches any scope.
func GroupByName(groups []domain.ScopeGroup, name string) []domain.ScopeGroup {
	want := domain.ParseScopePath(name)
	if len(want) == 0 {
		return nil
	}
	var out []domain.ScopeGroup
	for _, g := range groups {
		path := g.QualifiedPath()
		if len(path) >= len(want) && slices.Equal(path[len(path)-len(want):], want) {
			out = append(out, g)
		}
	}
	return out
}
