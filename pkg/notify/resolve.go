package notify

import (
	"context"

	"github.com/refnotify/refnotify/pkg/git"
)

// Store is the dedup store consumed by the resolver. The production
// implementation records and filters in one transaction, so concurrent hook
// invocations cannot both claim the same commit.
type Store interface {
	// FilterAndRecord records every given id and returns the ids that had
	// not been recorded before, preserving input order.
	FilterAndRecord(ctx context.Context, ids []git.Hash) ([]git.Hash, error)
}

// Resolver computes the set of commits newly introduced by a ref update,
// oldest first, deduplicated against the store.
type Resolver struct {
	backend  git.Backend
	store    Store // nil disables deduplication
	exclude  []string
	noMerges bool
}

// NewResolver returns a Resolver. The exclude list holds concrete refs
// whose reachable commits are never reported.
func NewResolver(backend git.Backend, store Store, exclude []string, noMerges bool) *Resolver {
	return &Resolver{
		backend:  backend,
		store:    store,
		exclude:  exclude,
		noMerges: noMerges,
	}
}

// Resolve returns the commit ids introduced by the update that have not been
// reported before. The full raw range is recorded in the store even when
// later steps fail: a missed notice is judged less harmful than a duplicate
// flood.
func (r *Resolver) Resolve(ctx context.Context, u RefUpdate) ([]git.Hash, error) {
	ids, err := r.backend.ResolveRange(u.OldID, u.NewID, git.RangeOptions{
		Exclude:  r.exclude,
		NoMerges: r.noMerges,
	})
	if err != nil {
		return nil, err
	}
	if r.store == nil {
		return ids, nil
	}
	return r.store.FilterAndRecord(ctx, ids)
}
