package searchfox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"searchfox/internal/domain"
)

// CallGraphQuery selects one of the three call-graph query forms.
type CallGraphQuery struct {
	CallsFrom string
	CallsTo   string
	Source    string
	Target    string
	Depth     int
}

func (q CallGraphQuery) String() string {
	depth := q.Depth
	if depth < 1 {
		depth = 1
	}
	switch {
	case q.CallsFrom != "":
		return fmt.Sprintf("calls-from:'%s' depth:%d graph-format:json", q.CallsFrom, depth)
	case q.CallsTo != "":
		return fmt.Sprintf("calls-to:'%s' depth:%d graph-format:json", q.CallsTo, depth)
	case q.Source != "" && q.Target != "":
		return fmt.Sprintf("calls-between-source:'%s' calls-between-target:'%s' depth:%d graph-format:json",
			strings.TrimSpace(q.Source), strings.TrimSpace(q.Target), depth)
	}
	return ""
}

var errEmptyQuery = errors.New("no call graph query specified")

type symbolGraphCollection struct {
	Graphs   []symbolGraph      `json:"graphs"`
	Jumprefs map[string]jumpref `json:"jumprefs"`
}

type symbolGraph struct {
	Edges []graphEdge `json:"edges"`
}

type graphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type jumpref struct {
	Pretty string            `json:"pretty"`
	Sym    string            `json:"sym"`
	Jumps  map[string]string `json:"jumps"`
	Meta   json.RawMessage   `json:"meta,omitempty"`
}

func (c *Client) queryDefault(ctx context.Context, q string) (map[string]json.RawMessage, error) {
	v := url.Values{}
	v.Set("q", q)
	body, err := c.get(ctx, c.endpoint("query/default", v), "application/json")
	if err != nil {
		return nil, err
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("%w: %v (body: %s)", domain.ErrMalformedResponse, err, preview(body))
	}
	return top, nil
}

// CallGraphRaw returns the SymbolGraphCollection for q, or the non-metadata
// sections of the response when the server answered with search results.
func (c *Client) CallGraphRaw(ctx context.Context, q CallGraphQuery) (json.RawMessage, error) {
	query := q.String()
	if query == "" {
		return nil, errEmptyQuery
	}
	top, err := c.queryDefault(ctx, query)
	if err != nil {
		return nil, err
	}
	if graph, ok := top["SymbolGraphCollection"]; ok {
		return graph, nil
	}
	rest := make(map[string]json.RawMessage)
	for k, v := range top {
		if !strings.HasPrefix(k, "*") {
			rest[k] = v
		}
	}
	return json.Marshal(rest)
}

// Neighbors returns the direct callees (CallsFrom) or callers (CallsTo) of
// symbol as symbol hits.
func (c *Client) Neighbors(ctx context.Context, symbol string, dir domain.Direction) ([]domain.SymbolHit, error) {
	q := CallGraphQuery{Depth: 1}
	if dir == domain.CallsTo {
		q.CallsTo = symbol
	} else {
		q.CallsFrom = symbol
	}
	raw, err := c.CallGraphRaw(ctx, q)
	if err != nil {
		return nil, err
	}
	return parseNeighbors(raw, symbol, dir)
}

func parseNeighbors(raw json.RawMessage, symbol string, dir domain.Direction) ([]domain.SymbolHit, error) {
	var coll symbolGraphCollection
	if err := json.Unmarshal(raw, &coll); err != nil {
		return nil, fmt.Errorf("%w: symbol graph: %v", domain.ErrMalformedResponse, err)
	}

	seeds := make(map[string]bool)
	for sym, ref := range coll.Jumprefs {
		if ref.Pretty == symbol || strings.HasSuffix(ref.Pretty, "::"+symbol) {
			seeds[sym] = true
		}
	}

	seen := make(map[string]bool)
	var hits []domain.SymbolHit
	for _, g := range coll.Graphs {
		for _, e := range g.Edges {
			self, other := e.From, e.To
			if dir == domain.CallsTo {
				self, other = e.To, e.From
			}
			if !seeds[self] || seen[other] {
				continue
			}
			seen[other] = true
			ref, ok := coll.Jumprefs[other]
			if !ok {
				return nil, fmt.Errorf("%w: edge references unknown symbol %q", domain.ErrMalformedResponse, other)
			}
			hits = append(hits, ref.hit(other))
		}
	}
	return hits, nil
}

// hit converts a jumpref into a symbol hit located at its definition, or at
// its declaration when no definition is indexed.
func (r jumpref) hit(sym string) domain.SymbolHit {
	pretty := r.Pretty
	if pretty == "" {
		pretty = sym
	}
	path := domain.ParseScopePath(pretty)
	h := domain.SymbolHit{MangledName: sym, Kind: domain.Definition}
	if len(path) > 0 {
		h.ScopePath = path[:len(path)-1]
		h.RawName = path[len(path)-1]
	}
	loc, ok := r.Jumps["def"]
	if !ok {
		loc = r.Jumps["decl"]
		h.Kind = domain.Declaration
	}
	h.FilePath, h.Line = splitJump(loc)
	return h
}

// splitJump parses "path#line".
func splitJump(loc string) (string, int) {
	path, line, ok := strings.Cut(loc, "#")
	if !ok {
		return loc, 0
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return path, 0
	}
	return path, n
}
