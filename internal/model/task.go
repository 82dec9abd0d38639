package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrValidation = errors.New("validation error")

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists the workflow stages in board order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusInProgress, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
}

func (p Priority) Valid() bool {
	_, err := ParsePriority(string(p))
	return err == nil
}

// Rank orders priorities high(0) < medium(1) < low(2).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Draft is a task before the record store has assigned its id and timestamps.
type Draft struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, d.Status)
	}
	if !d.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, d.Priority)
	}
	return nil
}

// Changes is a partial update. Nil fields are left untouched; the Clear flags
// null out the optional fields.
type Changes struct {
	Title            *string    `json:"title,omitempty"`
	Description      *string    `json:"description,omitempty"`
	ClearDescription bool       `json:"clear_description,omitempty"`
	Status           *Status    `json:"status,omitempty"`
	Priority         *Priority  `json:"priority,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	ClearDueDate     bool       `json:"clear_due_date,omitempty"`
}

func (c Changes) Validate() error {
	if c.Title != nil && strings.TrimSpace(*c.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if c.Status != nil && !c.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, *c.Status)
	}
	if c.Priority != nil && !c.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, *c.Priority)
	}
	return nil
}

func (c Changes) Empty() bool {
	return c.Title == nil && c.Description == nil && !c.ClearDescription &&
		c.Status == nil && c.Priority == nil && c.DueDate == nil && !c.ClearDueDate
}

// Apply merges c into t and stamps UpdatedAt.
func (c Changes) Apply(t Task, now time.Time) Task {
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.ClearDescription {
		t.Description = nil
	} else if c.Description != nil {
		d := *c.Description
		t.Description = &d
	}
	if c.Status != nil {
		t.Status = *c.Status
	}
	if c.Priority != nil {
		t.Priority = *c.Priority
	}
	if c.ClearDueDate {
		t.DueDate = nil
	} else if c.DueDate != nil {
		due := *c.DueDate
		t.DueDate = &due
	}
	t.UpdatedAt = now
	return t
}

// Counts holds the total and per-status number of tasks.
type Counts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in-progress"`
	Completed  int `json:"completed"`
}

// Board buckets tasks by status for the kanban view.
type Board struct {
	Pending    []Task `json:"pending"`
	InProgress []Task `json:"in-progress"`
	Completed  []Task `json:"completed"`
}
