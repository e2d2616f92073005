package market

import "context"

// Repository describes market window persistence needs from use cases.
type Repository interface {
	Get(ctx context.Context, kind Kind) (Window, bool, error)
	// SaveCAS writes the window only if the stored version still matches
	// expectedVersion, bumping the version on success. It reports false when
	// another writer got there first.
	SaveCAS(ctx context.Context, w Window, expectedVersion int64) (bool, error)
}
