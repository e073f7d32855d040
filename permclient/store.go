package permclient

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/taskhive/taskhive/permissions"
)

// DefaultTTL is how long a fetched snapshot stays warm. There is no
// background timer: the first read past the TTL drops the entry and starts a
// refetch.
const DefaultTTL = 5 * time.Minute

// State is the store's lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateLoaded        State = "loaded"
)

// Store is the injectable client permission cache: one snapshot per
// session, in-memory plus session storage, TTL-bounded.
//
// Policy: fail open (grant) while no snapshot is available, fail closed once
// a snapshot is loaded and grants nothing. Transient over-permissive UI is
// preferred over content flicker; the server re-checks every mutation anyway.
//
// Concurrent cold reads may each trigger a fetch; all fetches converge on
// the same idempotent server snapshot and the last response wins.
type Store struct {
	mu      sync.Mutex
	fetcher Fetcher
	storage SessionStorage
	ttl     time.Duration
	now     func() time.Time

	state State
	entry *Entry
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the snapshot TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store. Storage may be nil for a purely in-memory cache.
func NewStore(fetcher Fetcher, storage SessionStorage, opts ...Option) *Store {
	s := &Store{
		fetcher: fetcher,
		storage: storage,
		ttl:     DefaultTTL,
		now:     time.Now,
		state:   StateUninitialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init hydrates the store. Priority: server-provided initial snapshot, then
// an unexpired session-storage entry, then a fetch.
func (s *Store) Init(ctx context.Context, initial *Snapshot) {
	if initial != nil {
		s.install(ctx, initial, true)
		return
	}

	if s.storage != nil {
		entry, err := s.storage.Load(ctx)
		if err != nil {
			log.Printf("Permission cache storage read failed: %v", err)
		}
		if entry != nil && entry.Snapshot != nil && s.now().Sub(entry.FetchedAt) < s.ttl {
			s.mu.Lock()
			s.entry = entry
			s.state = StateLoaded
			s.mu.Unlock()
			return
		}
	}

	s.Load(ctx)
}

// Load fetches the snapshot. Fetch failures (including 401) are absorbed
// into the read-only fallback snapshot, cached with the normal TTL so a
// broken endpoint is not hammered; they are never surfaced to UI code.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	snapshot, err := s.fetcher.Fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			log.Printf("Permission snapshot fetch unauthorized, using viewer defaults")
		} else {
			log.Printf("Permission snapshot fetch failed, using viewer defaults: %v", err)
		}
		s.install(ctx, DefaultSnapshot(), true)
		return
	}
	s.install(ctx, snapshot, true)
}

// Refresh invalidates memory and session storage and refetches. Call after
// role- or membership-affecting mutations.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	s.entry = nil
	s.state = StateUninitialized
	s.mu.Unlock()

	if s.storage != nil {
		if err := s.storage.Clear(ctx); err != nil {
			log.Printf("Permission cache storage clear failed: %v", err)
		}
	}
	s.Load(ctx)
}

// State returns the current lifecycle state. An expired entry reports
// loading, since observing the expiry starts a refetch.
func (s *Store) State() State {
	s.snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HasPermission answers a permission check against the cached snapshot.
// No snapshot yet: true (fail open). Loaded but empty: false (fail closed).
func (s *Store) HasPermission(perm permissions.Permission, projectID string) bool {
	snap := s.snapshot()
	if snap == nil {
		return true
	}
	if snap.Empty() {
		return false
	}
	return snap.Has(perm, projectID)
}

// HasAnyPermission reports whether any of the permissions is granted.
func (s *Store) HasAnyPermission(perms []permissions.Permission, projectID string) bool {
	snap := s.snapshot()
	if snap == nil {
		return true
	}
	if snap.Empty() {
		return false
	}
	for _, p := range perms {
		if snap.Has(p, projectID) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every permission is granted.
func (s *Store) HasAllPermissions(perms []permissions.Permission, projectID string) bool {
	snap := s.snapshot()
	if snap == nil {
		return true
	}
	if snap.Empty() {
		return false
	}
	for _, p := range perms {
		if !snap.Has(p, projectID) {
			return false
		}
	}
	return true
}

// CanAccessProject mirrors the server check against the cached snapshot.
func (s *Store) CanAccessProject(projectID string) bool {
	snap := s.snapshot()
	if snap == nil {
		return true
	}
	if snap.Empty() {
		return false
	}
	return snap.canReach(projectID)
}

// CanManageProject mirrors the server sugar for project update capability.
func (s *Store) CanManageProject(projectID string) bool {
	return s.HasPermission(permissions.ProjectUpdate, projectID)
}

// install stores a fresh snapshot in memory and, optionally, session storage.
func (s *Store) install(ctx context.Context, snapshot *Snapshot, persist bool) {
	entry := &Entry{Snapshot: snapshot, FetchedAt: s.now()}

	s.mu.Lock()
	s.entry = entry
	s.state = StateLoaded
	s.mu.Unlock()

	if persist && s.storage != nil {
		if err := s.storage.Save(ctx, entry); err != nil {
			log.Printf("Permission cache storage write failed: %v", err)
		}
	}
}

// snapshot returns the current snapshot, or nil when cold. A snapshot older
// than the TTL is dropped and a background refetch starts; the expired read
// itself answers fail open while the refetch is in flight.
func (s *Store) snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry == nil {
		return nil
	}
	if s.now().Sub(s.entry.FetchedAt) >= s.ttl {
		s.entry = nil
		if s.state != StateLoading {
			s.state = StateLoading
			go s.Load(context.Background())
		}
		return nil
	}
	return s.entry.Snapshot
}
