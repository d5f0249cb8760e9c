package configstore

import (
	"context"
	"sort"
)

// Overlay is a Store that records writes in memory on top of a base store.
// Reads see the recorded writes first. Nothing reaches the base until Commit.
type Overlay struct {
	base    Store
	changes map[string]Value
}

// NewOverlay returns an Overlay over base.
func NewOverlay(base Store) *Overlay {
	return &Overlay{base: base, changes: make(map[string]Value)}
}

// Get implements Store.
func (o *Overlay) Get(path string) (Value, bool, error) {
	if v, ok := o.changes[path]; ok {
		return v, true, nil
	}
	return o.base.Get(path)
}

// Set implements Store.
func (o *Overlay) Set(path string, v Value) error {
	o.changes[path] = v
	return nil
}

// ServerCount implements Store. Server profiles are counted in the base
// store only.
func (o *Overlay) ServerCount() (int, error) {
	return o.base.ServerCount()
}

// Changed returns the paths written through the overlay, sorted.
func (o *Overlay) Changed() []string {
	paths := make([]string, 0, len(o.changes))
	for p := range o.changes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Commit writes the recorded changes to the base store and, when the base
// is a Saver, saves it. The overlay is empty afterwards.
func (o *Overlay) Commit(ctx context.Context) error {
	if len(o.changes) == 0 {
		return nil
	}
	for _, p := range o.Changed() {
		if err := o.base.Set(p, o.changes[p]); err != nil {
			return err
		}
	}
	if s, ok := o.base.(Saver); ok {
		if err := s.Save(ctx); err != nil {
			return err
		}
	}
	o.changes = make(map[string]Value)
	return nil
}
