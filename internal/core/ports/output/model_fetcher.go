package ports

import "context"

// ModelFetcher downloads a model artifact from a remote location.
type ModelFetcher interface {
	Fetch(ctx context.Context, uri string, maxBytes int64) ([]byte, error)
}
