package match

import "context"

// Repository is the authoritative match record store.
//
// Update is conditional on the version the caller read: implementations
// compare-and-swap on Version, return ErrStateConflict when the stored
// record moved on, and bump the given record's Version on success. Watch
// delivers a fresh snapshot after every committed write, at least once and
// latest-state-wins when a subscriber lags; the channel closes when the
// context is done.
type Repository interface {
	Create(ctx context.Context, m *Match) error
	Get(ctx context.Context, id string) (*Match, bool, error)
	Update(ctx context.Context, m *Match) error
	Watch(ctx context.Context, id string) (<-chan *Match, error)
}
