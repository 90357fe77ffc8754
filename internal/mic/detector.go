package mic

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/singleflight"
)

// Detector answers "who is capturing right now" by walking a Store. Every
// call re-reads the store; concurrent callers share one walk.
type Detector struct {
	store  Store
	group  singleflight.Group
	logger *slog.Logger
}

// NewDetector creates a detector over store.
func NewDetector(store Store, logger *slog.Logger) *Detector {
	return &Detector{store: store, logger: logger}
}

// ActiveUsers returns the sorted, deduplicated capture users.
func (d *Detector) ActiveUsers(ctx context.Context) ([]string, error) {
	ch := d.group.DoChan("walk", func() (any, error) {
		return d.walk()
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return slices.Clone(r.Val.([]string)), nil
	}
}

func (d *Detector) walk() ([]string, error) {
	root, err := d.store.Root()
	if err != nil {
		return nil, err
	}

	nodes, err := Walk(root, d.store.Match)
	if err != nil {
		return nil, fmt.Errorf("walk capture store: %w", err)
	}

	users := make([]string, 0, len(nodes))
	for _, n := range nodes {
		users = append(users, d.store.User(n))
	}
	slices.Sort(users)
	users = slices.Compact(users)

	if d.logger != nil {
		d.logger.Debug("Capture store walked", "active", len(users), "users", users)
	}
	return users, nil
}
