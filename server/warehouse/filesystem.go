package warehouse

import "context"

// FileSystem is the directory namespace a warehouse location lives on.
// Implementations must treat MkdirAll on an existing directory as success.
type FileSystem interface {
	// Schemes lists the location schemes this filesystem serves.
	Schemes() []string

	IsDir(ctx context.Context, p Path) (bool, error)
	Exists(ctx context.Context, p Path) (bool, error)
	MkdirAll(ctx context.Context, p Path) error
	// Delete removes p. A non-recursive delete of a non-empty directory fails.
	Delete(ctx context.Context, p Path, recursive bool) error
	Rename(ctx context.Context, src, dst Path) error
}
