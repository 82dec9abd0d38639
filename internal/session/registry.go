// Package session keeps exactly one task store per authenticated user.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BuzzLyutic/taskboard/internal/notify"
	"github.com/BuzzLyutic/taskboard/internal/repo"
	"github.com/BuzzLyutic/taskboard/internal/taskstore"
)

type entry struct {
	store    *taskstore.Store
	lastSeen time.Time
}

type Registry struct {
	records  repo.TaskRecords
	notifier notify.Notifier
	logger   *zap.Logger
	idleTTL  time.Duration
	opts     []taskstore.Option
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
}

func NewRegistry(records repo.TaskRecords, notifier notify.Notifier, logger *zap.Logger, idleTTL time.Duration, opts ...taskstore.Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Registry{
		records:  records,
		notifier: notifier,
		logger:   logger,
		idleTTL:  idleTTL,
		opts:     opts,
		now:      time.Now,
		entries:  make(map[string]*entry),
	}
}

// Get returns the user's store, creating and loading it on first access.
// Concurrent first accesses share one load. A failed initial load still
// registers the store with an empty cache; the failure reaches the user as a
// notification and Reload can be retried.
func (r *Registry) Get(ctx context.Context, userID string) (*taskstore.Store, error) {
	if userID == "" {
		return nil, taskstore.ErrNoIdentity
	}
	if s := r.lookup(userID); s != nil {
		return s, nil
	}

	v, err, _ := r.group.Do(userID, func() (any, error) {
		if s := r.lookup(userID); s != nil {
			return s, nil
		}
		s, err := taskstore.New(userID, r.records, r.notifier, r.logger, r.opts...)
		if err != nil {
			return nil, err
		}
		// Shared by every waiter, so one caller going away must not abort it.
		if err := s.Load(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("initial task load failed", zap.String("user_id", userID), zap.Error(err))
		}

		r.mu.Lock()
		r.entries[userID] = &entry{store: s, lastSeen: r.now()}
		r.mu.Unlock()
		r.logger.Info("session opened", zap.String("user_id", userID))
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*taskstore.Store), nil
}

func (r *Registry) lookup(userID string) *taskstore.Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID]
	if !ok {
		return nil
	}
	e.lastSeen = r.now()
	return e.store
}

// Reload re-runs Load on the user's store.
func (r *Registry) Reload(ctx context.Context, userID string) (*taskstore.Store, error) {
	s, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s, s.Load(ctx)
}

// Close drops the user's store, e.g. on sign-out.
func (r *Registry) Close(userID string) {
	r.mu.Lock()
	delete(r.entries, userID)
	r.mu.Unlock()
}

// EvictIdle drops stores not used within the idle TTL.
func (r *Registry) EvictIdle(_ context.Context) error {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var evicted []string
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			evicted = append(evicted, id)
		}
	}
	r.mu.Unlock()

	if len(evicted) > 0 {
		r.logger.Info("evicted idle sessions", zap.Strings("user_ids", evicted))
	}
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
