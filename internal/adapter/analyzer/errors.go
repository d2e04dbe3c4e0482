package analyzer

import "errors"

var (
	// ErrNoOpeningBrace means the start line is a declaration or no body
	// opener was found within the lookahead budget.
	ErrNoOpeningBrace = errors.New("no opening brace found")
	// ErrLineOutOfRange means the requested line is not inside the file.
	ErrLineOutOfRange = errors.New("line out of range")
	// ErrUnsupportedLanguage means the file is outside the brace-delimited family.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrUnsupportedConstruct means the unit contains a raw string or
	// template literal the lexer does not model.
	ErrUnsupportedConstruct = errors.New("unsupported lexical construct")
	// ErrInvalidDepth means a traversal was asked for fewer than one level.
	ErrInvalidDepth = errors.New("depth must be at least 1")
)
