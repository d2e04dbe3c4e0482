package port

import "context"

// TextSource supplies the lines of a file by its repository path.
type TextSource interface {
	FetchFile(ctx context.Context, path string) ([]string, error)
}
