package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/session"
	"github.com/BuzzLyutic/taskboard/internal/taskstore"
)

var ErrValidation = model.ErrValidation

type idempEntry struct {
	taskID string
	at     time.Time
}

// TaskService resolves the caller's store and adds idempotent creates on top.
type TaskService struct {
	sessions *session.Registry
	keyTTL   time.Duration

	mu    sync.Mutex
	keys  map[string]idempEntry
	group singleflight.Group
	now   func() time.Time
}

func NewTaskService(sessions *session.Registry) *TaskService {
	return &TaskService{
		sessions: sessions,
		keyTTL:   24 * time.Hour,
		keys:     make(map[string]idempEntry),
		now:      time.Now,
	}
}

func (s *TaskService) store(ctx context.Context, userID string) (*taskstore.Store, error) {
	return s.sessions.Get(ctx, userID)
}

// Create runs the store command. A repeated idempotency key returns the task
// created the first time, as long as it still exists. Concurrent requests with
// the same key share a single create.
func (s *TaskService) Create(ctx context.Context, userID string, d model.Draft, idempKey string) (model.Task, error) {
	st, err := s.store(ctx, userID)
	if err != nil {
		return model.Task{}, err
	}
	if idempKey == "" {
		return st.Create(ctx, d)
	}

	key := userID + ":" + idempKey
	v, err, _ := s.group.Do(key, func() (any, error) {
		// Повторный ключ - возвращаем уже созданную задачу
		if id, ok := s.lookupKey(key); ok {
			if existing, found := st.Get(id); found {
				return existing, nil
			}
		}
		task, err := st.Create(ctx, d)
		if err != nil {
			return task, err
		}
		s.saveKey(key, task.ID)
		return task, nil
	})
	return v.(model.Task), err
}

func (s *TaskService) lookupKey(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.keys[key]
	if !ok || s.now().Sub(e.at) > s.keyTTL {
		return "", false
	}
	return e.taskID, true
}

func (s *TaskService) saveKey(key, taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = idempEntry{taskID: taskID, at: s.now()}
}

// SweepKeys drops expired idempotency keys. It runs as a periodic worker job.
func (s *TaskService) SweepKeys(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.keys {
		if now.Sub(e.at) > s.keyTTL {
			delete(s.keys, k)
		}
	}
	return ctx.Err()
}

func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, error) {
	st, err := s.store(ctx, userID)
	if err != nil {
		return nil, err
	}
	return st.View(), nil
}

func (s *TaskService) Get(ctx context.Context, userID, id string) (model.Task, error) {
	st, err := s.store(ctx, userID)
	if err != nil {
		return model.Task{}, err
	}
	t, ok := st.Get(id)
	if !ok {
		return model.Task{}, taskstore.ErrNotFound
	}
	return t, nil
}

func (s *TaskService) Board(ctx context.Context, userID string) (model.Board, error) {
	st, err := s.store(ctx, userID)
	if err != nil {
		return model.Board{}, err
	}
	return st.Board(), nil
}

func (s *TaskService) Counts(ctx context.Context, userID string) (model.Counts, error) {
	st, err := s.store(ctx, userID)
	if err != nil {
		return model.Counts{}, err
	}
	return st.Counts(), nil
}

func (s *TaskService) Update(ctx context.Context, userID, id string, c model.Changes) (model.Task, error) {
	st, err := s.store(ctx, userID)
	if err != nil {
		return model.Task{}, err
	}
	return st.Update(ctx, id, c)
}

func (s *TaskService) SetStatus(ctx context.Context, userID, id string, status model.Status) (model.Task, error) {
	st, err := s.store(ctx, userID)
	if err != nil {
		return model.Task{}, err
	}
	return st.SetStatus(ctx, id, status)
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	st, err := s.store(ctx, userID)
	if err != nil {
		return err
	}
	return st.Delete(ctx, id)
}

func (s *TaskService) Reload(ctx context.Context, userID string) ([]model.Task, error) {
	st, err := s.sessions.Reload(ctx, userID)
	if err != nil {
		return nil, err
	}
	return st.View(), nil
}

func (s *TaskService) Filter(ctx context.Context, userID string) (model.Filter, error) {
	st, err := s.store(ctx, userID)
	if err != nil {
		return model.Filter{}, err
	}
	return st.Filter(), nil
}

func (s *TaskService) SetFilter(ctx context.Context, userID string, f model.Filter) (model.Filter, error) {
	st, err := s.store(ctx, userID)
	if err != nil {
		return model.Filter{}, err
	}
	if err := st.SetFilter(f); err != nil {
		return model.Filter{}, err
	}
	return st.Filter(), nil
}

func (s *TaskService) Sort(ctx context.Context, userID string) (model.Sort, error) {
	st, err := s.store(ctx, userID)
	if err != nil {
		return model.Sort{}, err
	}
	return st.Sort(), nil
}

func (s *TaskService) SetSort(ctx context.Context, userID string, o model.Sort) (model.Sort, error) {
	st, err := s.store(ctx, userID)
	if err != nil {
		return model.Sort{}, err
	}
	if err := st.SetSort(o); err != nil {
		return model.Sort{}, err
	}
	return st.Sort(), nil
}
