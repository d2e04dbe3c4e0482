package analyzer

import (
	"fmt"
	"path/filepath"
	"strings"

	"searchfox/internal/domain"
)

// ExtractorConfig bounds how far the extractor looks.
type ExtractorConfig struct {
	MaxLines        int
	Lookahead       int
	SignatureWindow int
}

// DefaultExtractorConfig returns the limits used when none are configured.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLines:        200,
		Lookahead:       10,
		SignatureWindow: 3,
	}
}

// Extractor finds the full span of the unit starting at a given line by
// counting code braces from the body opener.
type Extractor struct {
	cfg ExtractorConfig
}

// NewExtractor fills zero fields of cfg from DefaultExtractorConfig.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	def := DefaultExtractorConfig()
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = def.MaxLines
	}
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = def.Lookahead
	}
	if cfg.SignatureWindow < 0 {
		cfg.SignatureWindow = def.SignatureWindow
	}
	return &Extractor{cfg: cfg}
}

// Extract returns the span of the unit at startLine (1-indexed) in lines.
// path selects the lexical family by extension.
func (e *Extractor) Extract(lines []string, startLine int, path string) (domain.ExtractedUnit, error) {
	if startLine < 1 || startLine > len(lines) {
		return domain.ExtractedUnit{}, fmt.Errorf("%w: %d (file has %d lines)", ErrLineOutOfRange, startLine, len(lines))
	}
	lang, ok := LanguageForPath(path)
	if !ok {
		return domain.ExtractedUnit{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, filepath.Ext(path))
	}
	dialect, _ := DialectFor(lang)
	dialect = dialect.ForPath(path)

	sig := NewClassifier(dialect, e.cfg.SignatureWindow, e.cfg.Lookahead, e.cfg.MaxLines).Classify(lines, startLine)
	if sig.Unsupported {
		return domain.ExtractedUnit{}, fmt.Errorf("%w in signature at line %d", ErrUnsupportedConstruct, startLine)
	}
	if sig.Terminator != '{' {
		return domain.ExtractedUnit{}, fmt.Errorf("%w at line %d", ErrNoOpeningBrace, startLine)
	}

	unit := domain.ExtractedUnit{StartLine: startLine, Kind: sig.Kind}
	last := startLine + e.cfg.MaxLines - 1
	depth := 0
	carry := sig.OpenCarry

	for ln := sig.OpenLine; ln <= len(lines); ln++ {
		if ln > last {
			unit.EndLine = last
			unit.Truncated = true
			return unit, nil
		}
		line := lines[ln-1]
		scan := dialect.Scan(line, carry)
		if scan.Unsupported {
			return domain.ExtractedUnit{}, fmt.Errorf("%w at line %d", ErrUnsupportedConstruct, ln)
		}
		from := 0
		if ln == sig.OpenLine {
			from = sig.OpenCol
		}
		for i := from; i < len(line); i++ {
			if scan.States[i] != domain.Code {
				continue
			}
			switch line[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					unit.EndLine = ln
					if sig.Kind == domain.ClassOrStruct {
						unit.EndLine = e.classEnd(lines, ln, i, scan, last)
					}
					return unit, nil
				}
			}
		}
		carry = scan.Carry
		unit.OpenState = scan.End
	}

	unit.EndLine = len(lines)
	unit.Unterminated = true
	if unit.OpenState == domain.InLineComment || unit.OpenState == domain.InChar {
		unit.OpenState = domain.Code
	}
	return unit, nil
}

// classEnd extends a class or struct past its closing brace to the
// terminating semicolon, on the same line or the next one.
func (e *Extractor) classEnd(lines []string, ln, col int, scan LineScan, last int) int {
	rest := strings.TrimSpace(scan.CodeOnly(lines[ln-1])[col+1:])
	if strings.Contains(rest, ";") {
		return ln
	}
	if rest == "" && ln < len(lines) && ln+1 <= last {
		if strings.HasPrefix(strings.TrimSpace(lines[ln]), ";") {
			return ln + 1
		}
	}
	return ln
}

// ContextWindow returns the fallback span of ±n lines around line, clamped
// to the file.
func ContextWindow(total, line, n int) (int, int) {
	start := line - n
	if start < 1 {
		start = 1
	}
	end := line + n
	if end > total {
		end = total
	}
	return start, end
}
