package domain

import (
	"slices"
	"strconv"
	"strings"
)

// Language is the lexical family a file belongs to.
type Language string

const (
	CurlyBraceGeneric Language = "curly-brace"
)

type SourceLine struct {
	Number int
	Text   string
}

// Lines wraps raw file lines as 1-indexed SourceLines.
func Lines(text []string) []SourceLine {
	out := make([]SourceLine, len(text))
	for i, t := range text {
		out[i] = SourceLine{Number: i + 1, Text: t}
	}
	return out
}

// SplitLines splits text on newlines, dropping a trailing empty line and
// carriage returns.
func SplitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

type LexState uint8

const (
	Code LexState = iota
	InString
	InChar
	InLineComment
	InBlockComment
)

func (s LexState) String() string {
	switch s {
	case Code:
		return "code"
	case InString:
		return "string literal"
	case InChar:
		return "character literal"
	case InLineComment:
		return "line comment"
	case InBlockComment:
		return "block comment"
	default:
		return "unknown"
	}
}

type UnitKind string

const (
	Function      UnitKind = "function"
	Constructor   UnitKind = "constructor"
	ClassOrStruct UnitKind = "class"
)

// ExtractedUnit is the span of a complete syntactic unit. EndLine marks the
// truncation point when Truncated is set.
type ExtractedUnit struct {
	StartLine    int      `json:"start_line"`
	EndLine      int      `json:"end_line"`
	Kind         UnitKind `json:"kind"`
	Truncated    bool     `json:"truncated"`
	Unterminated bool     `json:"unterminated,omitempty"`
	OpenState    LexState `json:"-"`
}

// LineCount returns the number of lines covered by the unit.
func (u ExtractedUnit) LineCount() int {
	return u.EndLine - u.StartLine + 1
}

type HitKind string

const (
	Definition  HitKind = "definition"
	Declaration HitKind = "declaration"
)

// ScopePath is the ordered list of enclosing namespace/class names.
type ScopePath []string

// ParseScopePath splits a C++-style qualified name on "::". Separators
// inside template arguments or parameter lists do not split.
func ParseScopePath(qualified string) ScopePath {
	qualified = strings.TrimSpace(qualified)
	if qualified == "" {
		return nil
	}
	var path ScopePath
	add := func(p string) {
		if p = strings.TrimSpace(p); p != "" {
			path = append(path, p)
		}
	}
	depth, start := 0, 0
	for i := 0; i < len(qualified); i++ {
		switch qualified[i] {
		case '<', '(':
			depth++
		case '>', ')':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 && i+1 < len(qualified) && qualified[i+1] == ':' {
				add(qualified[start:i])
				i++
				start = i + 1
			}
		}
	}
	add(qualified[start:])
	return path
}

func (p ScopePath) String() string {
	return strings.Join(p, "::")
}

// HasPrefix reports whether p equals prefix or is nested inside it.
func (p ScopePath) HasPrefix(prefix ScopePath) bool {
	if len(prefix) > len(p) {
		return false
	}
	return slices.Equal(p[:len(prefix)], prefix)
}

// Child returns a new path with name appended.
func (p ScopePath) Child(name string) ScopePath {
	out := make(ScopePath, 0, len(p)+1)
	out = append(out, p...)
	return append(out, name)
}

type SymbolHit struct {
	FilePath    string    `json:"file_path"`
	Line        int       `json:"line"`
	ScopePath   ScopePath `json:"scope_path"`
	RawName     string    `json:"raw_name"`
	MangledName string    `json:"mangled_name,omitempty"`
	Kind        HitKind   `json:"kind"`
}

// BaseName is RawName with any parameter list stripped.
func (h SymbolHit) BaseName() string {
	name := h.RawName
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// Signature is the normalized parameter list when the raw name carries one,
// otherwise the mangled name.
func (h SymbolHit) Signature() string {
	open := strings.IndexByte(h.RawName, '(')
	if open < 0 {
		return h.MangledName
	}
	params := h.RawName[open:]
	if end := strings.LastIndexByte(params, ')'); end >= 0 {
		params = params[:end+1]
	}
	return normalizeParams(params)
}

// QualifiedPath is the scope path with the base name appended.
func (h SymbolHit) QualifiedPath() ScopePath {
	return h.ScopePath.Child(h.BaseName())
}

// Location renders the hit as path:line.
func (h SymbolHit) Location() string {
	return h.FilePath + ":" + strconv.Itoa(h.Line)
}

type OverloadVariant struct {
	Signature    string      `json:"signature"`
	MangledName  string      `json:"mangled_name,omitempty"`
	Definitions  []SymbolHit `json:"definitions,omitempty"`
	Declarations []SymbolHit `json:"declarations,omitempty"`
}

// Primary returns the hit to display: the first definition, else the first
// declaration.
func (v OverloadVariant) Primary() (SymbolHit, bool) {
	if len(v.Definitions) > 0 {
		return v.Definitions[0], true
	}
	if len(v.Declarations) > 0 {
		return v.Declarations[0], true
	}
	return SymbolHit{}, false
}

type ScopeGroup struct {
	ScopePath    ScopePath         `json:"scope_path"`
	Name         string            `json:"name"`
	Definitions  []SymbolHit       `json:"definitions,omitempty"`
	Declarations []SymbolHit       `json:"declarations,omitempty"`
	Variants     []OverloadVariant `json:"overload_variants"`
}

// QualifiedPath is the group's scope path with its base name appended.
func (g ScopeGroup) QualifiedPath() ScopePath {
	return g.ScopePath.Child(g.Name)
}

// QualifiedName is QualifiedPath joined with "::".
func (g ScopeGroup) QualifiedName() string {
	return g.QualifiedPath().String()
}

// DeclarationOnly reports whether the group has no definition hits.
func (g ScopeGroup) DeclarationOnly() bool {
	return len(g.Definitions) == 0
}

// Primary returns the display hit of the first variant that has a definition,
// falling back to the first declaration.
func (g ScopeGroup) Primary() (SymbolHit, bool) {
	for _, v := range g.Variants {
		if len(v.Definitions) > 0 {
			return v.Definitions[0], true
		}
	}
	for _, v := range g.Variants {
		if hit, ok := v.Primary(); ok {
			return hit, true
		}
	}
	return SymbolHit{}, false
}

// CallEdge is one caller to callee relation. Neighbor is the group reached
// by the edge: the callee for calls-from, the caller for calls-to.
type CallEdge struct {
	Caller   ScopePath  `json:"caller"`
	Callee   ScopePath  `json:"callee"`
	Site     SymbolHit  `json:"site"`
	Level    int        `json:"level"`
	Neighbor ScopeGroup `json:"neighbor"`
}

type Direction string

const (
	CallsFrom Direction = "calls-from"
	CallsTo   Direction = "calls-to"
)

type CallGraph struct {
	Seed         ScopeGroup   `json:"seed"`
	Direction    Direction    `json:"direction"`
	Depth        int          `json:"depth"`
	DepthReached int          `json:"depth_reached"`
	Edges        []CallEdge   `json:"edges"`
	Nodes        []ScopeGroup `json:"nodes,omitempty"`
}

type FieldLayout struct {
	ClassName      string       `json:"class_name"`
	SizeBytes      uint64       `json:"size_bytes"`
	AlignmentBytes uint64       `json:"alignment_bytes,omitempty"`
	Bases          []LayoutItem `json:"bases,omitempty"`
	Fields         []LayoutItem `json:"fields,omitempty"`
}

type LayoutItem struct {
	Offset uint64 `json:"offset"`
	Size   uint64 `json:"size"`
	Type   string `json:"type"`
	Name   string `json:"name,omitempty"`
}

type SearchResult struct {
	Path string `json:"path"`
	Line int    `json:"line,omitempty"`
	Text string `json:"text,omitempty"`
}

func normalizeParams(params string) string {
	var b strings.Builder
	space := false
	for _, r := range params {
		switch r {
		case ' ', '\t', '\n', '\r':
			space = true
			continue
		}
		if space && b.Len() > 0 {
			last := b.String()[b.Len()-1]
			if isWordByte(last) && isWordRune(r) {
				b.WriteByte(' ')
			}
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isWordRune(r rune) bool {
	return r < 128 && isWordByte(byte(r))
}
