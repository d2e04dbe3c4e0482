package report

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchfox/internal/adapter/analyzer"
	"searchfox/internal/domain"
)

func TestUnit_MarksStartLine(t *testing.T) {
	lines := []string{"int foo() {", "  return 1;", "}"}
	out := Unit("foo.cpp", lines, domain.ExtractedUnit{StartLine: 1, EndLine: 3, Kind: domain.Function})

	assert.Contains(t, out, ">>>    1: int foo() {")
	assert.Contains(t, out, "       2:   return 1;")
	assert.Contains(t, out, "       3: }")
	assert.NotContains(t, out, "truncated")
}

func TestUnit_TruncatedAndUnterminatedNotes(t *testing.T) {
	lines := make([]string, 10)
	out := Unit("a.cpp", lines, domain.ExtractedUnit{StartLine: 1, EndLine: 5, Truncated: true})
	assert.Contains(t, out, "truncated after 5 lines")

	out = Unit("a.cpp", lines, domain.ExtractedUnit{StartLine: 1, EndLine: 10, Unterminated: true, OpenState: domain.InBlockComment})
	assert.Contains(t, out, "end of file reached before the closing brace")
	assert.Contains(t, out, "block comment")
}

func TestContext_StatesReason(t *testing.T) {
	lines := []string{"a", "b", "void f(int);", "d", "e"}
	err := fmt.Errorf("wrap: %w", analyzer.ErrNoOpeningBrace)

	out := Context("f.h", lines, 3, 1, err)
	assert.Contains(t, out, "declaration")
	assert.Contains(t, out, ">>>    3: void f(int);")
	assert.Contains(t, out, "       2: b")
	assert.NotContains(t, out, "1: a")
}

func TestGroups(t *testing.T) {
	groups := []domain.ScopeGroup{{
		ScopePath: domain.ScopePath{"ns"},
		Name:      "foo",
		Variants: []domain.OverloadVariant{
			{Signature: "(int)", Definitions: []domain.SymbolHit{{FilePath: "a.cpp", Line: 3}}},
			{Signature: "(int,int)", Declarations: []domain.SymbolHit{{FilePath: "a.h", Line: 9}}},
		},
		Definitions: []domain.SymbolHit{{FilePath: "a.cpp", Line: 3}},
	}}

	out := Groups(groups)
	assert.Contains(t, out, "ns::foo (2 overloads)")
	assert.Contains(t, out, "a.cpp:3 [definition]")
	assert.Contains(t, out, "a.h:9 [declaration]")

	groups[0].Variants[0].MangledName = "_ZN2ns3fooEi"
	assert.Contains(t, Groups(groups), "(int) _ZN2ns3fooEi")
	assert.Equal(t, "No matches.\n", Groups(nil))
}

func TestSortEdges(t *testing.T) {
	edges := []domain.CallEdge{
		{Caller: domain.ScopePath{"B"}, Callee: domain.ScopePath{"C"}, Level: 2},
		{Caller: domain.ScopePath{"A"}, Callee: domain.ScopePath{"Z"}, Level: 1},
		{Caller: domain.ScopePath{"A"}, Callee: domain.ScopePath{"B"}, Level: 1},
	}
	sorted := SortEdges(edges)
	require.Len(t, sorted, 3)
	assert.Equal(t, "B", sorted[0].Callee.String())
	assert.Equal(t, "Z", sorted[1].Callee.String())
	assert.Equal(t, 2, sorted[2].Level)
	assert.Equal(t, 1, edges[2].Level, "input is not modified")
}

func TestGraphs(t *testing.T) {
	seed := domain.ScopeGroup{Name: "A"}
	graphs := []domain.CallGraph{{
		Seed:         seed,
		Direction:    domain.CallsFrom,
		Depth:        2,
		DepthReached: 1,
		Edges: []domain.CallEdge{{
			Caller: domain.ScopePath{"A"},
			Callee: domain.ScopePath{"B"},
			Site:   domain.SymbolHit{FilePath: "b.cpp", Line: 4},
			Level:  1,
		}},
	}}

	out := Graphs("A", graphs)
	assert.Contains(t, out, "calls-from A (depth 2, reached 1)")
	assert.Contains(t, out, "[1] A -> B  (b.cpp:4)")
	assert.NotContains(t, out, "ambiguous")

	out = Graphs("A", append(graphs, domain.CallGraph{Seed: domain.ScopeGroup{ScopePath: domain.ScopePath{"x"}, Name: "A"}, Direction: domain.CallsFrom, Depth: 2}))
	assert.Contains(t, out, "ambiguous: 2 candidates")
	assert.Contains(t, out, "no calls found")

	assert.Equal(t, "No matches for Q.\n", Graphs("Q", nil))
}

func TestGraphs_ListsOverloadsWithMangledNames(t *testing.T) {
	b := domain.ScopeGroup{
		ScopePath: domain.ScopePath{"ns"},
		Name:      "B",
		Variants: []domain.OverloadVariant{
			{Signature: "(int)", MangledName: "_ZN2ns1BEi", Definitions: []domain.SymbolHit{{FilePath: "b.cpp", Line: 3}}},
			{Signature: "_ZN2ns1BEv", MangledName: "_ZN2ns1BEv", Declarations: []domain.SymbolHit{{FilePath: "b.h", Line: 7}}},
		},
	}
	edge := domain.CallEdge{
		Caller:   domain.ScopePath{"ns", "A"},
		Callee:   domain.ScopePath{"ns", "B"},
		Site:     domain.SymbolHit{FilePath: "b.cpp", Line: 3, MangledName: "_ZN2ns1BEi"},
		Level:    1,
		Neighbor: b,
	}

	out := Graphs("ns::A", []domain.CallGraph{{Seed: domain.ScopeGroup{ScopePath: domain.ScopePath{"ns"}, Name: "A"}, Direction: domain.CallsFrom, Depth: 1, DepthReached: 1, Edges: []domain.CallEdge{edge}}})
	assert.Contains(t, out, "[1] ns::A -> ns::B (2 overloads)  (b.cpp:3)")
	assert.Contains(t, out, "(int) _ZN2ns1BEi")
	assert.Contains(t, out, "b.h:7")
	assert.Contains(t, out, "_ZN2ns1BEv")
	assert.Equal(t, 1, strings.Count(out, "ns::A -> ns::B"), "overloads share one heading")

	edge.Neighbor = domain.ScopeGroup{}
	out = Between(domain.ScopePath{"ns", "A"}, domain.ScopePath{"ns", "B"}, []domain.CallEdge{edge})
	assert.Contains(t, out, "_ZN2ns1BEi")
}

func TestGraphs_Deterministic(t *testing.T) {
	edges := []domain.CallEdge{
		{Caller: domain.ScopePath{"A"}, Callee: domain.ScopePath{"C"}, Level: 1},
		{Caller: domain.ScopePath{"A"}, Callee: domain.ScopePath{"B"}, Level: 1},
	}
	reversed := []domain.CallEdge{edges[1], edges[0]}
	a := Graphs("A", []domain.CallGraph{{Seed: domain.ScopeGroup{Name: "A"}, Edges: edges}})
	b := Graphs("A", []domain.CallGraph{{Seed: domain.ScopeGroup{Name: "A"}, Edges: reversed}})
	assert.Equal(t, a, b)
	assert.Less(t, strings.Index(a, "-> B"), strings.Index(a, "-> C"))
}

func TestBetween(t *testing.T) {
	out := Between(domain.ScopePath{"A"}, domain.ScopePath{"B"}, nil)
	assert.Contains(t, out, "no matches")

	out = Between(domain.ScopePath{"A"}, domain.ScopePath{"B"}, []domain.CallEdge{{Caller: domain.ScopePath{"A"}, Callee: domain.ScopePath{"B"}, Level: 1}})
	assert.Contains(t, out, "[1] A -> B")
}

func TestSearchResults(t *testing.T) {
	results := []domain.SearchResult{
		{Path: "dom/a.cpp", Line: 3, Text: "foo();  "},
		{Path: "dom/a.cpp", Line: 9, Text: "bar();"},
	}
	out := SearchResults(results, false)
	assert.Contains(t, out, "dom/a.cpp:3: foo();\n")
	assert.Contains(t, out, "Total matches: 2")

	out = SearchResults(results, true)
	assert.Equal(t, "dom/a.cpp\nTotal matches: 1\n", out)
}

func TestFieldLayout(t *testing.T) {
	out := FieldLayout(domain.FieldLayout{
		ClassName:      "nsFoo",
		SizeBytes:      24,
		AlignmentBytes: 8,
		Bases:          []domain.LayoutItem{{Offset: 0, Size: 8, Type: "nsISupports"}},
		Fields:         []domain.LayoutItem{{Offset: 8, Size: 4, Type: "uint32_t", Name: "mCount"}},
	})
	assert.Contains(t, out, "Field Layout: nsFoo")
	assert.Contains(t, out, "Size: 24 bytes, Alignment: 8 bytes")
	assert.Contains(t, out, "Base Classes:")
	assert.Contains(t, out, "nsISupports")
	assert.Contains(t, out, "mCount")
	assert.Contains(t, out, "uint32_t")
}

func TestErrorMessage_DistinctPerKind(t *testing.T) {
	kinds := []error{
		analyzer.ErrNoOpeningBrace,
		analyzer.ErrLineOutOfRange,
		analyzer.ErrUnsupportedLanguage,
		analyzer.ErrUnsupportedConstruct,
		analyzer.ErrInvalidDepth,
		domain.ErrNoMatchingSymbol,
		domain.ErrMalformedResponse,
		domain.ErrExpensiveSearch,
		domain.ErrFileNotFound,
	}
	seen := make(map[string]bool)
	for _, k := range kinds {
		msg := ErrorMessage(fmt.Errorf("context: %w", k))
		assert.NotEmpty(t, msg)
		assert.False(t, seen[msg], "duplicate message %q", msg)
		seen[msg] = true
	}
	assert.Equal(t, "other", ErrorMessage(errors.New("other")))
	assert.Empty(t, ErrorMessage(nil))
}
