// Package taskstore owns one user's task collection. It mirrors the remote
// record store in memory, applies commands against the remote first and only
// then updates the local cache, and derives the list, board and count views.
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/notify"
	"github.com/BuzzLyutic/taskboard/internal/record"
	"github.com/BuzzLyutic/taskboard/internal/repo"
)

var (
	ErrNoIdentity   = errors.New("no user identity")
	ErrNotFound     = errors.New("task not found")
	ErrLoadFailed   = errors.New("load failed")
	ErrCreateFailed = errors.New("create failed")
	ErrUpdateFailed = errors.New("update failed")
	ErrDeleteFailed = errors.New("delete failed")
)

const (
	opLoad   = "load"
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

var failureMessages = map[string]string{
	opLoad:   "Failed to load tasks",
	opCreate: "Failed to create task",
	opUpdate: "Failed to update task",
	opDelete: "Failed to delete task",
}

var failureKinds = map[string]error{
	opLoad:   ErrLoadFailed,
	opCreate: ErrCreateFailed,
	opUpdate: ErrUpdateFailed,
	opDelete: ErrDeleteFailed,
}

type Option func(*Store)

// WithClock replaces time.Now for the local updated_at stamp.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocale sets the collation used when sorting by title.
func WithLocale(tag language.Tag) Option {
	return func(s *Store) { s.locale = tag }
}

type Store struct {
	userID   string
	records  repo.TaskRecords
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
	locale   language.Tag

	mu      sync.RWMutex
	tasks   []model.Task
	filter  model.Filter
	sort    model.Sort
	loading bool
}

func New(userID string, records repo.TaskRecords, notifier notify.Notifier, logger *zap.Logger, opts ...Option) (*Store, error) {
	if userID == "" {
		return nil, ErrNoIdentity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &Store{
		userID:   userID,
		records:  records,
		notifier: notifier,
		logger:   logger.With(zap.String("user_id", userID)),
		now:      time.Now,
		locale:   language.English,
		tasks:    []model.Task{},
		filter:   model.DefaultFilter(),
		sort:     model.DefaultSort(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) UserID() string { return s.userID }

// Load replaces the cache with every record of the user. On failure the cache
// is left empty.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	rows, err := s.records.SelectAll(ctx, s.userID)
	var tasks []model.Task
	if err == nil {
		tasks, err = record.ToTasks(rows)
	}

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.tasks = []model.Task{}
	} else {
		s.tasks = tasks
	}
	s.mu.Unlock()

	if err != nil {
		return s.fail(ctx, opLoad, "", err)
	}
	s.logger.Debug("tasks loaded", zap.Int("count", len(tasks)))
	return nil
}

// Create inserts d remotely and prepends the stored task.
func (s *Store) Create(ctx context.Context, d model.Draft) (model.Task, error) {
	if err := d.Validate(); err != nil {
		return model.Task{}, err
	}

	created, err := s.records.Insert(ctx, record.FromDraft(s.userID, d))
	if err != nil {
		return model.Task{}, s.fail(ctx, opCreate, "", err)
	}
	task, err := record.ToTask(created)
	if err != nil {
		return model.Task{}, s.fail(ctx, opCreate, created.ID, err)
	}

	s.mu.Lock()
	s.tasks = append([]model.Task{task}, s.tasks...)
	s.mu.Unlock()

	s.notifier.Notify(ctx, s.userID, notify.Success("Task created"))
	return task, nil
}

// Update writes the present fields of c and merges them into the cached task.
// Ids missing from the cache are rejected before any remote write.
func (s *Store) Update(ctx context.Context, id string, c model.Changes) (model.Task, error) {
	if err := c.Validate(); err != nil {
		return model.Task{}, err
	}
	if _, ok := s.Get(id); !ok {
		return model.Task{}, s.fail(ctx, opUpdate, id, ErrNotFound)
	}

	if err := s.records.Update(ctx, s.userID, id, record.PatchFromChanges(c)); err != nil {
		return model.Task{}, s.fail(ctx, opUpdate, id, err)
	}

	now := s.now()
	s.mu.Lock()
	// Copy on write: views may still be reading the previous slice.
	next := make([]model.Task, len(s.tasks))
	copy(next, s.tasks)
	for i, t := range next {
		if t.ID == id {
			next[i] = c.Apply(t, now)
			s.tasks = next
			s.mu.Unlock()
			return next[i], nil
		}
	}
	s.mu.Unlock()
	// Удалена локально, пока запись была в полёте
	return model.Task{}, s.fail(ctx, opUpdate, id, ErrNotFound)
}

func (s *Store) SetStatus(ctx context.Context, id string, status model.Status) (model.Task, error) {
	return s.Update(ctx, id, model.Changes{Status: &status})
}

// Delete always asks the record store, so deleting an id that is already gone
// locally still reports the remote not-found.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, s.userID, id); err != nil {
		return s.fail(ctx, opDelete, id, err)
	}

	s.mu.Lock()
	kept := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.mu.Unlock()

	s.notifier.Notify(ctx, s.userID, notify.Success("Task deleted"))
	return nil
}

func (s *Store) fail(ctx context.Context, op, taskID string, err error) error {
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if taskID != "" {
		fields = append(fields, zap.String("task_id", taskID))
	}
	s.logger.Error("task command failed", fields...)
	s.notifier.Notify(ctx, s.userID, notify.Error(failureMessages[op]))
	return fmt.Errorf("%w: %w", failureKinds[op], err)
}

func (s *Store) Get(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// Tasks returns a copy of the cache in store order (newest first after load).
func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Task(nil), s.tasks...)
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Filter() model.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *Store) SetFilter(f model.Filter) error {
	f, err := f.Normalize()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
	return nil
}

func (s *Store) Sort() model.Sort {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sort
}

func (s *Store) SetSort(o model.Sort) error {
	o, err := o.Normalize()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sort = o
	s.mu.Unlock()
	return nil
}

// View is the filtered and sorted list.
func (s *Store) View() []model.Task {
	s.mu.RLock()
	tasks, f, o := s.tasks, s.filter, s.sort
	s.mu.RUnlock()
	return FilterAndSort(tasks, f, o, s.locale)
}

func (s *Store) Board() model.Board {
	return GroupByStatus(s.Tasks())
}

func (s *Store) Counts() model.Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CountByStatus(s.tasks)
}
