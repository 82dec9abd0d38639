package model

import "fmt"

// All matches every status or priority in a Filter.
const All = "all"

type Filter struct {
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Search   string `json:"search"`
}

func DefaultFilter() Filter {
	return Filter{Status: All, Priority: All}
}

// Normalize maps empty selectors to All and rejects unknown values.
func (f Filter) Normalize() (Filter, error) {
	if f.Status == "" {
		f.Status = All
	}
	if f.Priority == "" {
		f.Priority = All
	}
	if f.Status != All {
		if _, err := ParseStatus(f.Status); err != nil {
			return f, err
		}
	}
	if f.Priority != All {
		if _, err := ParsePriority(f.Priority); err != nil {
			return f, err
		}
	}
	return f, nil
}

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortDueDate   SortField = "dueDate"
	SortPriority  SortField = "priority"
	SortTitle     SortField = "title"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Sort struct {
	Field     SortField `json:"field"`
	Direction Direction `json:"direction"`
}

func DefaultSort() Sort {
	return Sort{Field: SortCreatedAt, Direction: Desc}
}

func (s Sort) Normalize() (Sort, error) {
	switch s.Field {
	case "":
		s.Field = SortCreatedAt
	case SortCreatedAt, SortDueDate, SortPriority, SortTitle:
	default:
		return s, fmt.Errorf("%w: unknown sort field %q", ErrValidation, s.Field)
	}
	switch s.Direction {
	case "":
		s.Direction = Desc
	case Asc, Desc:
	default:
		return s, fmt.Errorf("%w: unknown sort direction %q", ErrValidation, s.Direction)
	}
	return s, nil
}
