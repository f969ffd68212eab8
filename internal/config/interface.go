package config

import "context"

// Loader is the interface for a format-specific document loader.
type Loader interface {
	// Load reads every document found at the given paths and merges them
	// into one model.
	Load(ctx context.Context, paths ...string) (*Document, error)
}
