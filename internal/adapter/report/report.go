// Package report renders extraction, grouping and traversal results as
// plain text. Every function is pure and deterministic.
package report

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"searchfox/internal/adapter/analyzer"
	"searchfox/internal/domain"
)

const marker = ">>>"

func numbered(b *strings.Builder, lines []string, from, to, mark int) {
	for ln := from; ln <= to && ln <= len(lines); ln++ {
		m := "   "
		if ln == mark {
			m = marker
		}
		fmt.Fprintf(b, "%s %4d: %s\n", m, ln, lines[ln-1])
	}
}

// Unit renders an extracted unit with line numbers. The start line carries
// the marker.
func Unit(path string, lines []string, unit domain.ExtractedUnit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d (%s, lines %d-%d)\n", path, unit.StartLine, unit.Kind, unit.StartLine, unit.EndLine)
	numbered(&b, lines, unit.StartLine, unit.EndLine, unit.StartLine)
	switch {
	case unit.Truncated:
		fmt.Fprintf(&b, "    ...  : (truncated after %d lines)\n", unit.LineCount())
	case unit.Unterminated:
		note := "end of file reached before the closing brace"
		if unit.OpenState != domain.Code {
			note += ", inside an unterminated " + unit.OpenState.String()
		}
		fmt.Fprintf(&b, "    ...  : (%s)\n", note)
	}
	return b.String()
}

// Context renders the fallback window around line and states why the
// complete unit could not be extracted.
func Context(path string, lines []string, line, n int, reason error) string {
	var b strings.Builder
	start, end := analyzer.ContextWindow(len(lines), line, n)
	fmt.Fprintf(&b, "%s:%d (context only: %s)\n", path, line, ErrorMessage(reason))
	numbered(&b, lines, start, end, line)
	return b.String()
}

// GroupHeader renders the heading line for one scope group.
func GroupHeader(g domain.ScopeGroup) string {
	var b strings.Builder
	b.WriteString(g.QualifiedName())
	if len(g.Variants) > 1 {
		fmt.Fprintf(&b, " (%d overloads)", len(g.Variants))
	}
	if g.DeclarationOnly() {
		b.WriteString(" [declaration only]")
	}
	return b.String()
}

// Groups lists scope groups in the order given, one variant per line.
func Groups(groups []domain.ScopeGroup) string {
	if len(groups) == 0 {
		return "No matches.\n"
	}
	var b strings.Builder
	for _, g := range groups {
		b.WriteString(GroupHeader(g))
		b.WriteByte('\n')
		for _, v := range g.Variants {
			sig := variantLabel(v)
			for _, h := range v.Definitions {
				fmt.Fprintf(&b, "  %-30s %s [definition]\n", sig, h.Location())
			}
			for _, h := range v.Declarations {
				fmt.Fprintf(&b, "  %-30s %s [declaration]\n", sig, h.Location())
			}
		}
	}
	return b.String()
}

// SortEdges orders edges by level, then caller, then callee.
func SortEdges(edges []domain.CallEdge) []domain.CallEdge {
	out := slices.Clone(edges)
	slices.SortStableFunc(out, func(a, b domain.CallEdge) int {
		if a.Level != b.Level {
			return a.Level - b.Level
		}
		if c := strings.Compare(a.Caller.String(), b.Caller.String()); c != 0 {
			return c
		}
		return strings.Compare(a.Callee.String(), b.Callee.String())
	})
	return out
}

// variantLabel is the parameter list followed by the mangled name, each
// when known.
func variantLabel(v domain.OverloadVariant) string {
	switch {
	case v.Signature == "" && v.MangledName == "":
		return "-"
	case v.Signature == "" || v.Signature == v.MangledName:
		return v.MangledName
	case v.MangledName == "":
		return v.Signature
	}
	return v.Signature + " " + v.MangledName
}

// writeEdges prints one heading per edge, then the overloads of the group the
// edge reaches.
func writeEdges(b *strings.Builder, edges []domain.CallEdge) {
	for _, e := range SortEdges(edges) {
		fmt.Fprintf(b, "  [%d] %s -> %s", e.Level, e.Caller, e.Callee)
		if n := len(e.Neighbor.Variants); n > 1 {
			fmt.Fprintf(b, " (%d overloads)", n)
		}
		if e.Site.FilePath != "" {
			fmt.Fprintf(b, "  (%s)", e.Site.Location())
		}
		b.WriteByte('\n')

		if len(e.Neighbor.Variants) == 0 {
			if e.Site.MangledName != "" {
				fmt.Fprintf(b, "        %s\n", e.Site.MangledName)
			}
			continue
		}
		for _, v := range e.Neighbor.Variants {
			label := variantLabel(v)
			hit, ok := v.Primary()
			if label == "-" && (len(e.Neighbor.Variants) == 1 || !ok) {
				continue
			}
			if ok && hit.FilePath != "" {
				fmt.Fprintf(b, "        %-30s %s\n", label, hit.Location())
				continue
			}
			fmt.Fprintf(b, "        %s\n", label)
		}
	}
}

// Graphs renders one section per seed candidate.
func Graphs(query string, graphs []domain.CallGraph) string {
	if len(graphs) == 0 {
		return fmt.Sprintf("No matches for %s.\n", query)
	}
	var b strings.Builder
	if len(graphs) > 1 {
		fmt.Fprintf(&b, "%s is ambiguous: %d candidates.\n\n", query, len(graphs))
	}
	for i, g := range graphs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s (depth %d, reached %d)\n", g.Direction, g.Seed.QualifiedName(), g.Depth, g.DepthReached)
		if len(g.Edges) == 0 {
			b.WriteString("  no calls found\n")
			continue
		}
		writeEdges(&b, g.Edges)
	}
	return b.String()
}

// Between renders the edges connecting two scopes.
func Between(source, target domain.ScopePath, edges []domain.CallEdge) string {
	var b strings.Builder
	fmt.Fprintf(&b, "calls between %s and %s\n", source, target)
	if len(edges) == 0 {
		b.WriteString("  no matches\n")
		return b.String()
	}
	writeEdges(&b, edges)
	return b.String()
}

// SearchResults renders text-search hits as path:line: text. With pathOnly
// each path is listed once.
func SearchResults(results []domain.SearchResult, pathOnly bool) string {
	var b strings.Builder
	seen := make(map[string]bool)
	count := 0
	for _, r := range results {
		if pathOnly || r.Line == 0 {
			if !seen[r.Path] {
				seen[r.Path] = true
				b.WriteString(r.Path)
				b.WriteByte('\n')
				count++
			}
			continue
		}
		fmt.Fprintf(&b, "%s:%d: %s\n", r.Path, r.Line, strings.TrimRight(r.Text, " \t\r"))
		count++
	}
	fmt.Fprintf(&b, "Total matches: %d\n", count)
	return b.String()
}

// ErrorMessage maps every error kind to a distinct user-facing message.
func ErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, analyzer.ErrNoOpeningBrace):
		return "no opening brace found; this looks like a declaration"
	case errors.Is(err, analyzer.ErrLineOutOfRange):
		return "line is outside the file"
	case errors.Is(err, analyzer.ErrUnsupportedLanguage):
		return "file type is not a brace-delimited language"
	case errors.Is(err, analyzer.ErrUnsupportedConstruct):
		return "raw string or template literal not supported"
	case errors.Is(err, analyzer.ErrInvalidDepth):
		return "depth must be at least 1"
	case errors.Is(err, domain.ErrNoMatchingSymbol):
		return "no matching symbol"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "searchfox returned a response that could not be decoded"
	case errors.Is(err, domain.ErrExpensiveSearch):
		return "full-text search without a path filter is disabled; set search.allow_fulltext or add --path"
	case errors.Is(err, domain.ErrFileNotFound):
		return "file not found"
	default:
		return err.Error()
	}
}
