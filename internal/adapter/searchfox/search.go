package searchfox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"searchfox/internal/domain"
)

// Category selects which result sections of a search are kept.
type Category string

const (
	CategoryAll                      Category = "all"
	CategoryExcludeTests             Category = "exclude-tests"
	CategoryExcludeGenerated         Category = "exclude-generated"
	CategoryExcludeTestsAndGenerated Category = "exclude-tests-and-generated"
	CategoryOnlyTests                Category = "only-tests"
	CategoryOnlyGenerated            Category = "only-generated"
	CategoryOnlyNormal               Category = "only-normal"
)

var categories = []Category{
	CategoryAll, CategoryExcludeTests, CategoryExcludeGenerated, CategoryExcludeTestsAndGenerated,
	CategoryOnlyTests, CategoryOnlyGenerated, CategoryOnlyNormal,
}

// ParseCategory validates a category name. Empty means all.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryAll, nil
	}
	c := Category(s)
	if !slices.Contains(categories, c) {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// keeps reports whether a top-level result section survives the filter.
func (c Category) keeps(section string) bool {
	test := strings.Contains(section, "test")
	generated := strings.Contains(section, "generated")
	switch c {
	case CategoryExcludeTests:
		return !test
	case CategoryExcludeGenerated:
		return !generated
	case CategoryExcludeTestsAndGenerated:
		return !test && !generated
	case CategoryOnlyTests:
		return test
	case CategoryOnlyGenerated:
		return generated
	case CategoryOnlyNormal:
		return !test && !generated
	default:
		return true
	}
}

type SearchOptions struct {
	Query    string
	Path     string
	Case     bool
	Regexp   bool
	Limit    int
	Context  int
	Symbol   string
	ID       string
	Cpp      bool
	C        bool
	WebIDL   bool
	JS       bool
	Category Category
}

var languageExtensions = map[string][]string{
	"cpp":    {".cc", ".cpp", ".h", ".hh", ".hpp"},
	"c":      {".c", ".h"},
	"webidl": {".webidl"},
	"js":     {".js", ".mjs", ".ts", ".cjs", ".jsx", ".tsx"},
}

// IsExpensive reports whether the search bypasses the symbol index and
// falls back to a full-text scan.
func (o SearchOptions) IsExpensive() bool {
	if o.Symbol != "" || o.ID != "" {
		return false
	}
	if o.Query == "" {
		return false
	}
	return !strings.Contains(o.Query, "symbol:") && !strings.Contains(o.Query, "id:")
}

// MatchesLanguage applies the language filters to a result path. With no
// filter set every path matches.
func (o SearchOptions) MatchesLanguage(path string) bool {
	var exts []string
	for lang, on := range map[string]bool{"cpp": o.Cpp, "c": o.C, "webidl": o.WebIDL, "js": o.JS} {
		if on {
			exts = append(exts, languageExtensions[lang]...)
		}
	}
	if len(exts) == 0 {
		return true
	}
	lower := strings.ToLower(path)
	for _, e := range exts {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}

var queryPrefixes = []string{"path:", "pathre:", "symbol:", "id:", "text:", "re:"}

// BuildQuery renders the q parameter.
func (o SearchOptions) BuildQuery() string {
	switch {
	case o.Symbol != "":
		return "symbol:" + o.Symbol
	case o.ID != "":
		return "id:" + o.ID
	case o.Query == "":
		return ""
	}
	for _, p := range queryPrefixes {
		if strings.Contains(o.Query, p) {
			return o.Query
		}
	}
	if o.Context > 0 {
		return fmt.Sprintf("context:%d text:%s", o.Context, o.Query)
	}
	return o.Query
}

// PathOnly is a path listing with no content query.
func (o SearchOptions) PathOnly() bool {
	return o.Path != "" && o.Query == "" && o.Symbol == "" && o.ID == ""
}

type wireLine struct {
	Lno      int    `json:"lno"`
	Line     string `json:"line"`
	Upsearch string `json:"upsearch,omitempty"`
}

type wireFile struct {
	Path  string     `json:"path"`
	Lines []wireLine `json:"lines"`
}

// resultSet is one list of files under a section ("normal", "test") and an
// optional label ("Definitions (Foo::Bar)").
type resultSet struct {
	Section string
	Label   string
	Files   []wireFile
}

// decodeResults flattens a search response. Keys starting with '*' carry
// metadata and are skipped.
func decodeResults(body []byte) ([]resultSet, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("%w: %v (body: %s)", domain.ErrMalformedResponse, err, preview(body))
	}

	var sets []resultSet
	for _, section := range sortedKeys(top) {
		if strings.HasPrefix(section, "*") {
			continue
		}
		raw := top[section]
		trimmed := strings.TrimSpace(string(raw))
		switch {
		case strings.HasPrefix(trimmed, "["):
			var files []wireFile
			if err := json.Unmarshal(raw, &files); err != nil {
				return nil, fmt.Errorf("%w: section %q: %v", domain.ErrMalformedResponse, section, err)
			}
			sets = append(sets, resultSet{Section: section, Files: files})
		case strings.HasPrefix(trimmed, "{"):
			var labelled map[string][]wireFile
			if err := json.Unmarshal(raw, &labelled); err != nil {
				return nil, fmt.Errorf("%w: section %q: %v", domain.ErrMalformedResponse, section, err)
			}
			for _, label := range sortedKeys(labelled) {
				sets = append(sets, resultSet{Section: section, Label: label, Files: labelled[label]})
			}
		}
	}
	return sets, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Search runs a text, symbol or path query and returns at most Limit hits.
func (c *Client) Search(ctx context.Context, opts SearchOptions) ([]domain.SearchResult, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	q := url.Values{}
	q.Set("q", opts.BuildQuery())
	q.Set("case", strconv.FormatBool(opts.Case))
	q.Set("regexp", strconv.FormatBool(opts.Regexp))
	if opts.Path != "" {
		q.Set("path", opts.Path)
	}

	body, err := c.get(ctx, c.endpoint("search", q), "application/json")
	if err != nil {
		return nil, err
	}
	sets, err := decodeResults(body)
	if err != nil {
		return nil, err
	}

	var results []domain.SearchResult
	for _, set := range sets {
		if !opts.Category.keeps(set.Section) {
			continue
		}
		for _, f := range set.Files {
			if !opts.MatchesLanguage(f.Path) {
				continue
			}
			if opts.PathOnly() {
				results = append(results, domain.SearchResult{Path: f.Path})
			} else {
				for _, l := range f.Lines {
					results = append(results, domain.SearchResult{
						Path: f.Path,
						Line: l.Lno,
						Text: strings.TrimRight(l.Line, " \t\r"),
					})
				}
			}
			if len(results) >= opts.Limit {
				return results[:opts.Limit], nil
			}
		}
	}
	return results, nil
}

// SymbolHits looks symbol up in the identifier index and returns its
// definition and declaration sites. Uses are dropped.
func (c *Client) SymbolHits(ctx context.Context, symbol, path string) ([]domain.SymbolHit, error) {
	q := url.Values{}
	q.Set("q", "id:"+strings.TrimPrefix(symbol, "id:"))
	if path != "" {
		q.Set("path", path)
	}
	body, err := c.get(ctx, c.endpoint("search", q), "application/json")
	if err != nil {
		return nil, err
	}
	sets, err := decodeResults(body)
	if err != nil {
		return nil, err
	}

	var hits []domain.SymbolHit
	for _, set := range sets {
		kind, qualified, ok := parseLabel(set.Label, symbol)
		if !ok {
			continue
		}
		scope := domain.ParseScopePath(qualified)
		if len(scope) == 0 {
			continue
		}
		for _, f := range set.Files {
			for _, l := range f.Lines {
				hits = append(hits, domain.SymbolHit{
					FilePath:    f.Path,
					Line:        l.Lno,
					ScopePath:   scope[:len(scope)-1],
					RawName:     scope[len(scope)-1],
					MangledName: mangledName(l.Upsearch),
					Kind:        kind,
				})
			}
		}
	}
	return hits, nil
}

// parseLabel reads "Definitions (ns::Foo)" style labels.
func parseLabel(label, fallback string) (domain.HitKind, string, bool) {
	var kind domain.HitKind
	switch {
	case strings.HasPrefix(label, "Definitions"):
		kind = domain.Definition
	case strings.HasPrefix(label, "Declarations"):
		kind = domain.Declaration
	default:
		return "", "", false
	}
	qualified := strings.TrimPrefix(fallback, "id:")
	if open := strings.IndexByte(label, '('); open >= 0 {
		if end := strings.LastIndexByte(label, ')'); end > open {
			qualified = label[open+1 : end]
		}
	}
	return kind, qualified, true
}

// mangledName extracts the first symbol from an upsearch string such as
// "symbol:_ZN3foo3barEv,_ZN3foo3barEi".
func mangledName(upsearch string) string {
	sym, ok := strings.CutPrefix(upsearch, "symbol:")
	if !ok {
		return ""
	}
	if i := strings.IndexByte(sym, ','); i >= 0 {
		sym = sym[:i]
	}
	return sym
}
