package taskstore

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

// FilterAndSort returns the list view: tasks narrowed by f and ordered by s.
// The input slice is never modified. Ties keep their input order in both
// directions.
func FilterAndSort(tasks []model.Task, f model.Filter, s model.Sort, locale language.Tag) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	search := strings.ToLower(f.Search)
	for _, t := range tasks {
		if f.Status != "" && f.Status != model.All && string(t.Status) != f.Status {
			continue
		}
		if f.Priority != "" && f.Priority != model.All && string(t.Priority) != f.Priority {
			continue
		}
		if search != "" && !matches(t, search) {
			continue
		}
		out = append(out, t)
	}

	cmp := comparator(s.Field, locale)
	desc := s.Direction == model.Desc
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if desc {
			c = -c
		}
		return c < 0
	})
	return out
}

func matches(t model.Task, lowerSearch string) bool {
	if strings.Contains(strings.ToLower(t.Title), lowerSearch) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), lowerSearch)
}

func comparator(field model.SortField, locale language.Tag) func(a, b model.Task) int {
	switch field {
	case model.SortTitle:
		// Collators keep internal buffers, so each derivation gets its own.
		col := collate.New(locale)
		return func(a, b model.Task) int {
			return col.CompareString(a.Title, b.Title)
		}
	case model.SortPriority:
		return func(a, b model.Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		}
	case model.SortDueDate:
		return func(a, b model.Task) int {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			}
			return a.DueDate.Compare(*b.DueDate)
		}
	default:
		return func(a, b model.Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
}

// GroupByStatus buckets every task by status. Filters and sort do not apply.
func GroupByStatus(tasks []model.Task) model.Board {
	b := model.Board{
		Pending:    []model.Task{},
		InProgress: []model.Task{},
		Completed:  []model.Task{},
	}
	for _, t := range tasks {
		switch t.Status {
		case model.StatusPending:
			b.Pending = append(b.Pending, t)
		case model.StatusInProgress:
			b.InProgress = append(b.InProgress, t)
		case model.StatusCompleted:
			b.Completed = append(b.Completed, t)
		}
	}
	return b
}

func CountByStatus(tasks []model.Task) model.Counts {
	c := model.Counts{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case model.StatusPending:
			c.Pending++
		case model.StatusInProgress:
			c.InProgress++
		case model.StatusCompleted:
			c.Completed++
		}
	}
	return c
}
