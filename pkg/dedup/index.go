// Package dedup holds the snapshot of fingerprints already recorded remotely.
package dedup

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// Lister returns every fingerprint known to the remote metadata store
type Lister interface {
	ListFingerprints(ctx context.Context) ([]string, error)
}

// Index is a read-only membership set built once per run. It is never
// updated while files are classified, so two new files with the same
// content in one run are both classified new.
type Index struct {
	set mapset.Set[string]
}

// New builds an index from fps. Duplicates collapse.
func New(fps []string) *Index {
	// read-only after construction, so the unsynchronised set is enough
	set := mapset.NewThreadUnsafeSetWithSize[string](len(fps))
	for _, fp := range fps {
		set.Add(fp)
	}
	return &Index{set: set}
}

// Build fetches the remote fingerprints from lister and indexes them
func Build(ctx context.Context, lister Lister) (*Index, error) {
	fps, err := lister.ListFingerprints(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote fingerprints: %w", err)
	}
	return New(fps), nil
}

// Contains reports whether fp was in the snapshot
func (i *Index) Contains(fp string) bool {
	return i.set.ContainsOne(fp)
}

// Len returns the number of distinct fingerprints
func (i *Index) Len() int {
	return i.set.Cardinality()
}
