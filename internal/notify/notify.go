// Package notify carries short user-visible messages about command outcomes
// to the UI, the server-side equivalent of a toast.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func New(level Level, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

func Success(message string) Notification { return New(LevelSuccess, message) }

func Error(message string) Notification { return New(LevelError, message) }

// Notifier publishes a notification for one user. Implementations log their
// own failures; callers never fail a command because a notification was lost.
type Notifier interface {
	Notify(ctx context.Context, userID string, n Notification)
}

// Feed returns and clears the pending notifications of a user, oldest first.
type Feed interface {
	Drain(ctx context.Context, userID string) ([]Notification, error)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Notify(context.Context, string, Notification) {}

// Memory keeps the newest max notifications per user in process.
type Memory struct {
	mu    sync.Mutex
	max   int
	items map[string][]Notification
}

func NewMemory(max int) *Memory {
	if max <= 0 {
		max = 50
	}
	return &Memory{max: max, items: make(map[string][]Notification)}
}

func (m *Memory) Notify(_ context.Context, userID string, n Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := append(m.items[userID], n)
	if len(list) > m.max {
		list = list[len(list)-m.max:]
	}
	m.items[userID] = list
}

func (m *Memory) Drain(_ context.Context, userID string) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.items[userID]
	delete(m.items, userID)
	if list == nil {
		list = []Notification{}
	}
	return list, nil
}
