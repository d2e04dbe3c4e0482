package analyzer

import (
	"strings"

	"searchfox/internal/domain"
)

// Signature is the assembled text in front of a unit body.
type Signature struct {
	Kind      domain.UnitKind
	Text      string
	FirstLine int
	// OpenLine and OpenCol locate the body's opening brace when Terminator is '{'.
	OpenLine   int
	OpenCol    int
	OpenCarry  domain.LexState
	Terminator byte
	InitList   bool
	// Unsupported is set when a raw string or template literal was seen.
	Unsupported bool
}

// Classifier decides what kind of unit starts at a line and where its body
// opens.
type Classifier struct {
	dialect   Dialect
	window    int
	lookahead int
	limit     int
}

// NewClassifier returns a classifier that reads window lines above the start
// line and up to lookahead lines below it. limit caps how far an
// initializer list may run.
func NewClassifier(dialect Dialect, window, lookahead, limit int) *Classifier {
	if window < 0 {
		window = 0
	}
	if lookahead <= 0 {
		lookahead = 10
	}
	if limit < lookahead {
		limit = lookahead
	}
	return &Classifier{
		dialect:   dialect,
		window:    window,
		lookahead: lookahead,
		limit:     limit,
	}
}

var typeKeywords = []string{"class", "struct", "union", "enum", "interface"}

// typeNameStops end the name run after a type keyword.
var typeNameStops = map[string]bool{
	"extends": true, "implements": true, "final": true, "where": true, "sealed": true,
}

// Classify assembles the signature around startLine (1-indexed) and finds
// the body opener or the terminating semicolon.
func (c *Classifier) Classify(lines []string, startLine int) Signature {
	first := c.signatureStart(lines, startLine)
	sig := Signature{FirstLine: first}

	var text strings.Builder
	carry := domain.Code
	paren := 0
	bracket := 0
	initBraces := 0
	sawParams := false
	paramsClosed := false
	ctor := false
	var prev byte
	used := 0

scan:
	for ln := first; ln <= len(lines); ln++ {
		if ln >= startLine {
			if used >= c.lookahead && !sig.InitList {
				break
			}
			if ln-startLine+1 > c.limit {
				break
			}
		}
		if ln == startLine && paren == 0 && bracket == 0 {
			// Parens above the start line belong to attributes or macros.
			sawParams, paramsClosed, ctor = false, false, false
		}
		line := lines[ln-1]
		lineCarry := carry
		ls := c.dialect.Scan(line, carry)
		carry = ls.Carry
		if ls.Unsupported {
			sig.Unsupported = true
		}
		code := ls.CodeOnly(line)

		for i := 0; i < len(code); i++ {
			ch := code[i]
			switch ch {
			case '[':
				bracket++
			case ']':
				if bracket > 0 {
					bracket--
				}
			case '(':
				if paren == 0 && bracket == 0 && !sawParams && initBraces == 0 {
					sawParams = true
					ctor = isConstructorPrefix(text.String() + code[:i])
				}
				paren++
			case ')':
				if paren > 0 {
					paren--
				}
				if paren == 0 && sawParams {
					paramsClosed = true
				}
			case ':':
				if paren == 0 && bracket == 0 && initBraces == 0 && ctor && paramsClosed && !sig.InitList &&
					!isScopeColon(code, i) {
					sig.InitList = true
				}
			case ';':
				if paren == 0 && bracket == 0 && initBraces == 0 {
					text.WriteString(code[:i+1])
					sig.Terminator = ';'
					break scan
				}
			case '{':
				if paren > 0 || bracket > 0 {
					break
				}
				if initBraces > 0 || (sig.InitList && (isIdentByte(prev) || prev == '>')) {
					initBraces++
					break
				}
				text.WriteString(code[:i])
				sig.Terminator = '{'
				sig.OpenLine = ln
				sig.OpenCol = i
				sig.OpenCarry = lineCarry
				break scan
			case '}':
				if paren > 0 || bracket > 0 {
					break
				}
				if initBraces > 0 {
					initBraces--
					break
				}
				// Closing brace of an enclosing scope: there is no body here.
				text.WriteString(code[:i])
				break scan
			}
			if ch != ' ' && ch != '\t' {
				prev = ch
			}
		}
		text.WriteString(code)
		text.WriteByte('\n')
		if ln >= startLine && !sig.InitList {
			used++
		}
	}

	sig.Text = collapseSpace(text.String())
	switch {
	case introducesType(sig.Text):
		sig.Kind = domain.ClassOrStruct
	case ctor:
		sig.Kind = domain.Constructor
	default:
		sig.Kind = domain.Function
	}
	if sig.Kind != domain.Constructor {
		sig.InitList = false
	}
	return sig
}

// signatureStart walks back over lines that continue the same statement,
// such as a return type on its own line or a template header.
func (c *Classifier) signatureStart(lines []string, startLine int) int {
	first := startLine
	for k := startLine - 1; k >= 1 && startLine-k <= c.window; k-- {
		trimmed := strings.TrimSpace(lines[k-1])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/") ||
			strings.HasSuffix(trimmed, "*/") {
			break
		}
		code := strings.TrimSpace(c.dialect.Scan(lines[k-1], domain.Code).CodeOnly(lines[k-1]))
		if code == "" || strings.ContainsAny(code, "{};") {
			break
		}
		if strings.HasSuffix(code, ":") && !strings.HasSuffix(code, "::") {
			break
		}
		first = k
	}
	return first
}

// isConstructorPrefix reports whether the text before a parameter list ends
// in Name::Name, ignoring template arguments on the outer name.
func isConstructorPrefix(prefix string) bool {
	prefix = strings.TrimRight(prefix, " \t\n")
	sep := strings.LastIndex(prefix, "::")
	if sep < 0 {
		return false
	}
	inner := strings.TrimSpace(prefix[sep+2:])
	if inner == "" || !isIdentifier(inner) {
		return false
	}
	outer := strings.TrimRight(prefix[:sep], " \t\n")
	if strings.HasSuffix(outer, ">") {
		depth := 0
		i := len(outer) - 1
		for ; i >= 0; i-- {
			if outer[i] == '>' {
				depth++
			} else if outer[i] == '<' {
				depth--
				if depth == 0 {
					break
				}
			}
		}
		if i < 0 {
			return false
		}
		outer = strings.TrimRight(outer[:i], " \t\n")
	}
	k := len(outer)
	for k > 0 && isIdentByte(outer[k-1]) {
		k--
	}
	return outer[k:] == inner
}

// introducesType reports whether a type keyword at paren depth zero, outside
// template argument lists, introduces a type rather than a return type.
func introducesType(text string) bool {
	paren := 0
	for i := 0; i < len(text); i++ {
		switch ch := text[i]; {
		case ch == '(':
			paren++
		case ch == ')':
			if paren > 0 {
				paren--
			}
		case paren == 0 && isIdentByte(ch) && (i == 0 || !isIdentByte(text[i-1])):
			j := i
			for j < len(text) && isIdentByte(text[j]) {
				j++
			}
			word := text[i:j]
			if word == "template" {
				j = skipAngles(text, j)
			} else if isTypeKeyword(word) && typeNameFollows(text, j) {
				return true
			}
			i = j - 1
		}
	}
	return false
}

func isTypeKeyword(word string) bool {
	for _, k := range typeKeywords {
		if word == k {
			return true
		}
	}
	return false
}

// typeNameFollows reads the identifier run after a type keyword and checks
// that it is not immediately used as a function's return type.
func typeNameFollows(text string, i int) bool {
	names := 0
	for {
		for i < len(text) && (text[i] == ' ' || text[i] == '\n' || text[i] == '\t') {
			i++
		}
		if i >= len(text) || !isIdentByte(text[i]) {
			break
		}
		j := i
		for j < len(text) && (isIdentByte(text[j]) || (text[j] == ':' && j+1 < len(text) && text[j+1] == ':')) {
			if text[j] == ':' {
				j++
			}
			j++
		}
		if typeNameStops[text[i:j]] {
			return names > 0
		}
		if isTypeKeyword(text[i:j]) {
			// enum class Foo
			i = j
			continue
		}
		names++
		i = j
	}
	if i >= len(text) {
		return names > 0
	}
	switch text[i] {
	case '(', '*', '&':
		return false
	}
	return true
}

// skipAngles skips whitespace and a balanced <...> group starting at i.
func skipAngles(text string, i int) int {
	for i < len(text) && (text[i] == ' ' || text[i] == '\n') {
		i++
	}
	if i >= len(text) || text[i] != '<' {
		return i
	}
	depth := 0
	for ; i < len(text); i++ {
		switch text[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

func isScopeColon(code string, i int) bool {
	return (i > 0 && code[i-1] == ':') || (i+1 < len(code) && code[i+1] == ':')
}

func isIdentifier(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
