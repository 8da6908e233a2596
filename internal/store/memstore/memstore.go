// Package memstore is an in-memory Store. It backs tests and previews and
// seals parties exactly like the persistent stores do.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/docket/internal/core"
	"github.com/JonMunkholm/docket/internal/sealer"
)

// Store holds cases and import runs in memory.
type Store struct {
	name string

	mu    sync.RWMutex
	cases map[string]*core.Case // parties sealed
	runs  map[uuid.UUID]core.ImportRun
}

// New returns an empty store.
func New(name string) *Store {
	return &Store{
		name:  name,
		cases: make(map[string]*core.Case),
		runs:  make(map[uuid.UUID]core.ImportRun),
	}
}

// Name implements core.Store.
func (s *Store) Name() string { return s.name }

// Cases implements core.Store.
func (s *Store) Cases(seal *sealer.Sealer) core.CaseRegistry {
	return &registry{store: s, seal: seal}
}

// Len returns the number of stored cases.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cases)
}

// Raw returns the stored record with parties still sealed.
func (s *Store) Raw(ref core.Reference) (*core.Case, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[ref.ID()]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

type registry struct {
	store *Store
	seal  *sealer.Sealer
}

func (r *registry) Get(_ context.Context, ref core.Reference) (*core.Case, error) {
	r.store.mu.RLock()
	c, ok := r.store.cases[ref.ID()]
	r.store.mu.RUnlock()
	if !ok {
		return nil, core.ErrCaseNotFound
	}

	out := c.Clone()
	parties, err := r.seal.Open(c.Parties)
	if err != nil {
		return nil, fmt.Errorf("open parties of %s: %w", ref, err)
	}
	out.Parties = parties
	return out, nil
}

func (r *registry) Create(_ context.Context, c *core.Case) (*core.Case, error) {
	stored, err := r.sealed(c)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.cases[c.Reference.ID()]; exists {
		return nil, fmt.Errorf("%w: %s", core.ErrCaseExists, c.Reference)
	}
	r.store.cases[c.Reference.ID()] = stored

	out := stored.Clone()
	out.Parties = c.Parties
	return out, nil
}

func (r *registry) Update(_ context.Context, c *core.Case) (*core.Case, error) {
	stored, err := r.sealed(c)
	if err != nil {
		return nil, err
	}
	stored.UpdatedAt = time.Now().UTC()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	prev, exists := r.store.cases[c.Reference.ID()]
	if !exists {
		return nil, core.ErrCaseNotFound
	}
	stored.ID, stored.CreatedAt = prev.ID, prev.CreatedAt
	r.store.cases[c.Reference.ID()] = stored

	out := stored.Clone()
	out.Parties = c.Parties
	return out, nil
}

func (r *registry) sealed(c *core.Case) (*core.Case, error) {
	stored := c.Clone()
	parties, err := r.seal.Seal(c.Parties)
	if err != nil {
		return nil, fmt.Errorf("seal parties of %s: %w", c.Reference, err)
	}
	stored.Parties = parties
	return stored, nil
}

// SaveRun implements core.HistoryStore.
func (s *Store) SaveRun(_ context.Context, run *core.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

// ListRuns implements core.HistoryStore.
func (s *Store) ListRuns(_ context.Context, limit int) ([]core.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.ImportRun, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetRun implements core.HistoryStore.
func (s *Store) GetRun(_ context.Context, id uuid.UUID) (*core.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, core.ErrImportNotFound
	}
	return &run, nil
}

// PurgeRuns implements core.HistoryStore.
func (s *Store) PurgeRuns(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, run := range s.runs {
		if run.StartedAt.Before(before) {
			delete(s.runs, id)
			n++
		}
	}
	return n, nil
}
