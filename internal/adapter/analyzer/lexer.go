package analyzer

import (
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"searchfox/internal/domain"
)

// Dialect is the rule table driving the lexical state machine. Every
// brace-delimited family shares one machine and differs only in this table.
type Dialect struct {
	Language      domain.Language
	StringQuote   byte
	CharQuote     byte
	Escape        byte
	LineComment   string
	BlockOpen     string
	BlockClose    string
	TemplateQuote byte
	RawPrefixes   []string
	Extensions    []string
	// QuoteStringExtensions lists the file types where CharQuote delimits a
	// string of any length instead of a single character.
	QuoteStringExtensions []string
	// CharQuoteStrings is set on a dialect resolved for one of those types.
	CharQuoteStrings bool
}

// CurlyBrace covers C, C++, Rust, JavaScript/TypeScript, Java and the IDL
// dialects indexed next to them.
var CurlyBrace = Dialect{
	Language:      domain.CurlyBraceGeneric,
	StringQuote:   '"',
	CharQuote:     '\'',
	Escape:        '\\',
	LineComment:   "//",
	BlockOpen:     "/*",
	BlockClose:    "*/",
	TemplateQuote: '`',
	RawPrefixes:   []string{"R", "LR", "uR", "UR", "u8R", "r", "br", "cr"},
	Extensions: []string{
		".c", ".h", ".cc", ".cpp", ".cxx", ".hh", ".hpp", ".hxx", ".inl", ".m", ".mm",
		".rs",
		".js", ".jsm", ".mjs", ".cjs", ".jsx", ".ts", ".tsx",
		".java", ".kt",
		".webidl", ".idl", ".ipdl", ".ipdlh",
	},
	QuoteStringExtensions: []string{".js", ".jsm", ".mjs", ".cjs", ".jsx", ".ts", ".tsx"},
}

var dialects = map[domain.Language]Dialect{
	domain.CurlyBraceGeneric: CurlyBrace,
}

// DialectFor returns the rule table registered for lang.
func DialectFor(lang domain.Language) (Dialect, bool) {
	d, ok := dialects[lang]
	return d, ok
}

// ForPath specializes the dialect for the extension of path.
func (d Dialect) ForPath(path string) Dialect {
	ext := strings.ToLower(filepath.Ext(path))
	d.CharQuoteStrings = ext != "" && slices.Contains(d.QuoteStringExtensions, ext)
	return d
}

// LanguageForPath maps a file path to its lexical family. An empty path is
// treated as the generic family so callers with anonymous text still work.
func LanguageForPath(path string) (domain.Language, bool) {
	if path == "" {
		return domain.CurlyBraceGeneric, true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, d := range dialects {
		for _, e := range d.Extensions {
			if e == ext {
				return d.Language, true
			}
		}
	}
	return "", false
}

// LineScan is the classification of one line.
type LineScan struct {
	// States holds one state per byte of the line.
	States []domain.LexState
	// End is the state after the last byte, before end-of-line resets.
	End domain.LexState
	// Carry is the state the next line starts in.
	Carry       domain.LexState
	Unsupported bool
}

// Scan classifies every byte of line given the state carried over from the
// previous line. It never fails: unterminated literals simply leave End set.
func (d Dialect) Scan(line string, carry domain.LexState) LineScan {
	states := make([]domain.LexState, len(line))
	state := carry
	if state == domain.InLineComment || state == domain.InChar {
		state = domain.Code
	}
	escaped := false
	unsupported := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch state {
		case domain.InLineComment:
			states[i] = domain.InLineComment

		case domain.InBlockComment:
			states[i] = domain.InBlockComment
			if hasPrefixAt(line, i, d.BlockClose) {
				for k := 1; k < len(d.BlockClose); k++ {
					states[i+k] = domain.InBlockComment
				}
				i += len(d.BlockClose) - 1
				state = domain.Code
			}

		case domain.InString, domain.InChar:
			states[i] = state
			switch {
			case escaped:
				escaped = false
			case c == d.Escape:
				escaped = true
			case state == domain.InString && c == d.StringQuote,
				state == domain.InChar && c == d.CharQuote:
				state = domain.Code
			}

		default:
			switch {
			case d.LineComment != "" && hasPrefixAt(line, i, d.LineComment):
				for k := i; k < len(line); k++ {
					states[k] = domain.InLineComment
				}
				i = len(line)
				state = domain.InLineComment
			case d.BlockOpen != "" && hasPrefixAt(line, i, d.BlockOpen):
				for k := 0; k < len(d.BlockOpen); k++ {
					states[i+k] = domain.InBlockComment
				}
				i += len(d.BlockOpen) - 1
				state = domain.InBlockComment
			case c == d.StringQuote:
				if d.rawStringAt(line, i) {
					unsupported = true
				}
				states[i] = domain.InString
				state = domain.InString
			case d.CharQuote != 0 && c == d.CharQuote && (d.CharQuoteStrings || d.charLiteralAt(line, i)):
				states[i] = domain.InChar
				state = domain.InChar
			case d.TemplateQuote != 0 && c == d.TemplateQuote:
				unsupported = true
				states[i] = domain.Code
			default:
				states[i] = domain.Code
			}
		}
	}

	next := state
	switch state {
	case domain.InLineComment, domain.InChar:
		next = domain.Code
	case domain.InString:
		// A trailing backslash continues the literal on the next line.
		if !escaped {
			next = domain.Code
		}
	}
	return LineScan{States: states, End: state, Carry: next, Unsupported: unsupported}
}

// CodeOnly returns line with every non-code byte replaced by a space, so that
// later pattern matching never sees braces or keywords inside literals.
func (s LineScan) CodeOnly(line string) string {
	b := []byte(line)
	for i, st := range s.States {
		if st != domain.Code {
			b[i] = ' '
		}
	}
	return string(b)
}

// BraceBalance returns opens minus closes counted in code state only.
func (d Dialect) BraceBalance(lines []string) int {
	depth := 0
	carry := domain.Code
	for _, line := range lines {
		scan := d.Scan(line, carry)
		for i, st := range scan.States {
			if st != domain.Code {
				continue
			}
			switch line[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		carry = scan.Carry
	}
	return depth
}

// charLiteralAt reports whether the quote at i opens a well-formed character
// literal. Rust lifetimes ('a) and C++ digit separators (1'000) do not.
func (d Dialect) charLiteralAt(line string, i int) bool {
	j := i + 1
	if j >= len(line) {
		return false
	}
	if line[j] == d.Escape {
		for k := j + 2; k < len(line) && k <= j+12; k++ {
			if line[k] == d.CharQuote {
				return true
			}
		}
		return false
	}
	if line[j] == d.CharQuote {
		return false
	}
	_, size := utf8.DecodeRuneInString(line[j:])
	return j+size < len(line) && line[j+size] == d.CharQuote
}

// rawStringAt reports whether the string quote at i is preceded by a raw
// string prefix such as R, u8R or r#.
func (d Dialect) rawStringAt(line string, i int) bool {
	j := i
	hashes := 0
	for j > 0 && line[j-1] == '#' {
		j--
		hashes++
	}
	k := j
	for k > 0 && isIdentByte(line[k-1]) {
		k--
	}
	ident := line[k:j]
	if ident == "" {
		return false
	}
	for _, p := range d.RawPrefixes {
		if ident != p {
			continue
		}
		if hashes > 0 {
			return strings.HasSuffix(p, "r")
		}
		return true
	}
	return false
}

func hasPrefixAt(s string, i int, prefix string) bool {
	return prefix != "" && strings.HasPrefix(s[i:], prefix)
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
