package searchfox

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchfox/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL:    srv.URL,
		RawBaseURL: srv.URL + "/raw",
		Repo:       "mozilla-central",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

const searchBody = `{
  "*title": "ignored",
  "normal": {
    "Definitions (mozilla::dom::Element::SetAttr)": [
      {"path": "dom/base/Element.cpp", "lines": [
        {"lno": 120, "line": "nsresult Element::SetAttr(int32_t aNs) {", "upsearch": "symbol:_ZN7mozilla3dom7Element7SetAttrEi"},
        {"lno": 300, "line": "nsresult Element::SetAttr(nsAtom* aName) {", "upsearch": "symbol:_ZN7mozilla3dom7Element7SetAttrEP6nsAtom"}
      ]}
    ],
    "Declarations (mozilla::dom::Element::SetAttr)": [
      {"path": "dom/base/Element.h", "lines": [
        {"lno": 40, "line": "  nsresult SetAttr(int32_t aNs);", "upsearch": "symbol:_ZN7mozilla3dom7Element7SetAttrEi"}
      ]}
    ],
    "Uses (mozilla::dom::Element::SetAttr)": [
      {"path": "dom/base/Other.cpp", "lines": [{"lno": 7, "line": "el->SetAttr(1);"}]}
    ]
  },
  "test": [
    {"path": "dom/tests/test_element.js", "lines": [{"lno": 3, "line": "el.setAttr();  "}]}
  ]
}`

func TestClient_SymbolHits(t *testing.T) {
	var gotQuery, gotUA string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mozilla-central/search", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(searchBody))
	})

	hits, err := c.SymbolHits(context.Background(), "Element::SetAttr", "")
	require.NoError(t, err)
	assert.Equal(t, "id:Element::SetAttr", gotQuery)
	assert.True(t, strings.HasPrefix(gotUA, "searchfox-cli/"))

	require.Len(t, hits, 3)
	for _, h := range hits {
		assert.Equal(t, "mozilla::dom::Element", h.ScopePath.String())
		assert.Equal(t, "SetAttr", h.RawName)
	}
	// "Declarations" sorts before "Definitions".
	assert.Equal(t, domain.Declaration, hits[0].Kind)
	assert.Equal(t, "_ZN7mozilla3dom7Element7SetAttrEi", hits[0].MangledName)
	assert.Equal(t, domain.Definition, hits[1].Kind)
	assert.Equal(t, 120, hits[1].Line)
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "context:2 text:SetAttr", r.URL.Query().Get("q"))
		assert.Equal(t, "false", r.URL.Query().Get("case"))
		_, _ = w.Write([]byte(searchBody))
	})

	results, err := c.Search(context.Background(), SearchOptions{Query: "SetAttr", Context: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, results, 5)

	results, err = c.Search(context.Background(), SearchOptions{Query: "SetAttr", Context: 2, Category: CategoryExcludeTests})
	require.NoError(t, err)
	assert.Len(t, results, 4)

	results, err = c.Search(context.Background(), SearchOptions{Query: "SetAttr", Context: 2, JS: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "el.setAttr();", results[0].Text)

	results, err = c.Search(context.Background(), SearchOptions{Query: "SetAttr", Context: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestClient_Search_Malformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"normal": [{"path": 7}]}`))
	})
	_, err := c.Search(context.Background(), SearchOptions{Query: "id:x"})
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	_, err = c.SymbolHits(context.Background(), "x", "")
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestClient_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	_, err := c.Search(context.Background(), SearchOptions{Query: "id:x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSearchOptions(t *testing.T) {
	assert.True(t, SearchOptions{Query: "foo"}.IsExpensive())
	assert.False(t, SearchOptions{Query: "id:foo"}.IsExpensive())
	assert.False(t, SearchOptions{Symbol: "_Z3foov"}.IsExpensive())
	assert.False(t, SearchOptions{Path: "dom/"}.IsExpensive())

	assert.Equal(t, "symbol:_Z3foov", SearchOptions{Symbol: "_Z3foov"}.BuildQuery())
	assert.Equal(t, "id:Foo", SearchOptions{ID: "Foo"}.BuildQuery())
	assert.Equal(t, "path:dom foo", SearchOptions{Query: "path:dom foo", Context: 3}.BuildQuery())
	assert.Equal(t, "context:3 text:foo", SearchOptions{Query: "foo", Context: 3}.BuildQuery())

	assert.True(t, SearchOptions{}.MatchesLanguage("a.py"))
	assert.True(t, SearchOptions{Cpp: true}.MatchesLanguage("A.HPP"))
	assert.False(t, SearchOptions{Cpp: true}.MatchesLanguage("a.c"))
	assert.True(t, SearchOptions{Cpp: true, C: true}.MatchesLanguage("a.c"))
	assert.True(t, SearchOptions{WebIDL: true}.MatchesLanguage("Element.webidl"))
}

const graphBody = `{
  "SymbolGraphCollection": {
    "graphs": [{"edges": [
      {"from": "_ZA", "to": "_ZB"},
      {"from": "_ZA", "to": "_ZC"},
      {"from": "_ZB", "to": "_ZC"}
    ]}],
    "jumprefs": {
      "_ZA": {"pretty": "ns::A", "sym": "_ZA", "jumps": {"def": "a.cpp#10"}},
      "_ZB": {"pretty": "ns::B", "sym": "_ZB", "jumps": {"def": "b.cpp#20", "decl": "b.h#2"}},
      "_ZC": {"pretty": "other::C", "sym": "_ZC", "jumps": {"decl": "c.h#5"}}
    }
  }
}`

func TestClient_Neighbors(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mozilla-central/query/default", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(graphBody))
	})

	hits, err := c.Neighbors(context.Background(), "ns::A", domain.CallsFrom)
	require.NoError(t, err)
	assert.Equal(t, "calls-from:'ns::A' depth:1 graph-format:json", gotQuery)
	require.Len(t, hits, 2)
	assert.Equal(t, "B", hits[0].RawName)
	assert.Equal(t, "b.cpp", hits[0].FilePath)
	assert.Equal(t, 20, hits[0].Line)
	assert.Equal(t, domain.Declaration, hits[1].Kind)
	assert.Equal(t, "c.h", hits[1].FilePath)

	hits, err = c.Neighbors(context.Background(), "other::C", domain.CallsTo)
	require.NoError(t, err)
	assert.Equal(t, "calls-to:'other::C' depth:1 graph-format:json", gotQuery)
	assert.Len(t, hits, 2)
}

func TestParseNeighbors_UnknownSymbol(t *testing.T) {
	raw := []byte(`{"graphs":[{"edges":[{"from":"_ZA","to":"_ZX"}]}],"jumprefs":{"_ZA":{"pretty":"A"}}}`)
	_, err := parseNeighbors(raw, "A", domain.CallsFrom)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestCallGraphQuery_String(t *testing.T) {
	assert.Equal(t, "calls-between-source:'A' calls-between-target:'B' depth:2 graph-format:json",
		CallGraphQuery{Source: " A ", Target: "B", Depth: 2}.String())
	assert.Equal(t, "", CallGraphQuery{}.String())
}

func TestClient_FieldLayout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "field-layout:'nsFoo'", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"SymbolTreeTableList": {"tables": [{"jumprefs": {"T_nsFoo": {"meta": {"variants": [{
			"sizeBytes": 24, "alignmentBytes": 8,
			"supers": [{"offsetBytes": 0, "sizeBytes": 8, "sym": "T_nsISupports"}],
			"fields": [{"offsetBytes": 8, "sizeBytes": 4, "type": "uint32_t", "pretty": "nsFoo::mCount"}]
		}]}}}}]}}`))
	})

	layout, err := c.FieldLayout(context.Background(), "nsFoo")
	require.NoError(t, err)
	assert.Equal(t, uint64(24), layout.SizeBytes)
	assert.Equal(t, uint64(8), layout.AlignmentBytes)
	require.Len(t, layout.Bases, 1)
	assert.Equal(t, "nsISupports", layout.Bases[0].Type)
	require.Len(t, layout.Fields, 1)
	assert.Equal(t, "mCount", layout.Fields[0].Name)
}

func TestClient_FieldLayout_Missing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"SymbolTreeTableList": {"tables": []}}`))
	})
	_, err := c.FieldLayout(context.Background(), "nsFoo")
	assert.ErrorIs(t, err, domain.ErrNoMatchingSymbol)
}

func TestClient_FetchFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/raw/mozilla/firefox/main/dom/a.cpp" {
			_, _ = w.Write([]byte("line1\r\nline2\n"))
			return
		}
		http.NotFound(w, r)
	})

	lines, err := c.FetchFile(context.Background(), "dom/a.cpp")
	require.NoError(t, err)
	assert.Equal(t, []string{"line1", "line2"}, lines)

	_, err = c.FetchFile(context.Background(), "missing.cpp")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestClient_RawURL(t *testing.T) {
	c := NewClient(Options{Repo: "comm-central"})
	assert.Equal(t, "https://raw.githubusercontent.com/mozilla/releases-comm-central/main/mail/a.js", c.RawURL("mail/a.js"))

	c = NewClient(Options{Repo: "mozilla-esr128"})
	assert.Equal(t, "https://raw.githubusercontent.com/mozilla/firefox/esr128/x.h", c.RawURL("/x.h"))
}

func TestUserAgent_MagicWord(t *testing.T) {
	t.Setenv("SEARCHFOX_MAGIC_WORD", "open sesame")
	assert.Equal(t, "searchfox-cli/"+Version+" (open sesame)", UserAgent())
}

func TestClient_Ping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
	})
	_, err := c.Ping(context.Background())
	assert.NoError(t, err)
}
