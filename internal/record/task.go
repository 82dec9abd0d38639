// Package record holds the wire shapes exchanged with the record store and
// the translation to and from the in-memory model. Nullable columns and
// ISO-8601 timestamps never leave this package.
package record

import (
	"fmt"
	"time"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

// Task column names accepted in a TaskPatch.
const (
	ColTitle       = "title"
	ColDescription = "description"
	ColStatus      = "status"
	ColPriority    = "priority"
	ColDueDate     = "due_date"
)

type TaskRecord struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"due_date"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// TaskPatch maps column name to new value; a nil value writes NULL.
type TaskPatch map[string]any

func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func ToTask(r TaskRecord) (model.Task, error) {
	status, err := model.ParseStatus(r.Status)
	if err != nil {
		return model.Task{}, err
	}
	priority, err := model.ParsePriority(r.Priority)
	if err != nil {
		return model.Task{}, err
	}
	created, err := ParseTime(r.CreatedAt)
	if err != nil {
		return model.Task{}, err
	}
	updated, err := ParseTime(r.UpdatedAt)
	if err != nil {
		return model.Task{}, err
	}

	t := model.Task{
		ID:        r.ID,
		Title:     r.Title,
		Status:    status,
		Priority:  priority,
		CreatedAt: created,
		UpdatedAt: updated,
	}
	if r.Description != nil {
		d := *r.Description
		t.Description = &d
	}
	if r.DueDate != nil {
		due, err := ParseTime(*r.DueDate)
		if err != nil {
			return model.Task{}, err
		}
		t.DueDate = &due
	}
	return t, nil
}

func ToTasks(rs []TaskRecord) ([]model.Task, error) {
	tasks := make([]model.Task, 0, len(rs))
	for _, r := range rs {
		t, err := ToTask(r)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// FromDraft builds an insert record. ID and timestamps are left for the store.
func FromDraft(userID string, d model.Draft) TaskRecord {
	r := TaskRecord{
		UserID:   userID,
		Title:    d.Title,
		Status:   string(d.Status),
		Priority: string(d.Priority),
	}
	if d.Description != nil {
		desc := *d.Description
		r.Description = &desc
	}
	if d.DueDate != nil {
		due := FormatTime(*d.DueDate)
		r.DueDate = &due
	}
	return r
}

// PatchFromChanges translates only the fields present in c.
func PatchFromChanges(c model.Changes) TaskPatch {
	p := TaskPatch{}
	if c.Title != nil {
		p[ColTitle] = *c.Title
	}
	switch {
	case c.ClearDescription:
		p[ColDescription] = nil
	case c.Description != nil:
		p[ColDescription] = *c.Description
	}
	if c.Status != nil {
		p[ColStatus] = string(*c.Status)
	}
	if c.Priority != nil {
		p[ColPriority] = string(*c.Priority)
	}
	switch {
	case c.ClearDueDate:
		p[ColDueDate] = nil
	case c.DueDate != nil:
		p[ColDueDate] = FormatTime(*c.DueDate)
	}
	return p
}
