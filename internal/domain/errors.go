package domain

import "errors"

var (
	// ErrNoMatchingSymbol means the index returned no hits for a symbol.
	ErrNoMatchingSymbol = errors.New("no matching symbol")
	// ErrMalformedResponse means a collaborator returned data that could not
	// be decoded. The query is aborted.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrExpensiveSearch means a full-text query was refused because it
	// would scan the whole tree.
	ErrExpensiveSearch = errors.New("expensive search refused")
	ErrFileNotFound    = errors.New("file not found")
)
