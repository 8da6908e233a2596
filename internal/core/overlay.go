package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrCaseExists is returned when creating a case whose reference is taken.
var ErrCaseExists = errors.New("case already exists")

// Overlay is a CaseRegistry that buffers writes in memory and reads through
// to an optional base registry. With a nil base it is a plain in-memory
// registry. Dry runs use it to compute a report without touching storage.
type Overlay struct {
	base  CaseRegistry
	now   func() time.Time
	mu    sync.RWMutex
	cases map[string]*Case
}

// NewOverlay returns an overlay over base, which may be nil.
func NewOverlay(base CaseRegistry) *Overlay {
	return &Overlay{
		base:  base,
		now:   time.Now,
		cases: make(map[string]*Case),
	}
}

// Get implements CaseRegistry.
func (o *Overlay) Get(ctx context.Context, ref Reference) (*Case, error) {
	o.mu.RLock()
	c, ok := o.cases[ref.ID()]
	o.mu.RUnlock()
	if ok {
		return c.Clone(), nil
	}
	if o.base == nil {
		return nil, ErrCaseNotFound
	}
	return o.base.Get(ctx, ref)
}

// Create implements CaseRegistry.
func (o *Overlay) Create(ctx context.Context, c *Case) (*Case, error) {
	if _, err := o.Get(ctx, c.Reference); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrCaseExists, c.Reference)
	} else if !errors.Is(err, ErrCaseNotFound) {
		return nil, err
	}

	stored := c.Clone()
	now := o.now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now

	o.mu.Lock()
	o.cases[c.Reference.ID()] = stored
	o.mu.Unlock()
	return stored.Clone(), nil
}

// Update implements CaseRegistry.
func (o *Overlay) Update(ctx context.Context, c *Case) (*Case, error) {
	if _, err := o.Get(ctx, c.Reference); err != nil {
		return nil, err
	}

	stored := c.Clone()
	stored.UpdatedAt = o.now().UTC()

	o.mu.Lock()
	o.cases[c.Reference.ID()] = stored
	o.mu.Unlock()
	return stored.Clone(), nil
}

// Changes returns every case written through the overlay, ordered by id.
func (o *Overlay) Changes() []*Case {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]*Case, 0, len(o.cases))
	for _, c := range o.cases {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Reference.ID() < out[j].Reference.ID()
	})
	return out
}

// Len returns the number of cases held in memory.
func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.cases)
}
