package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/taskboard/internal/record"
)

// MemoryTaskRepo is an in-process TaskRecords used for local runs and tests.
type MemoryTaskRepo struct {
	mu    sync.Mutex
	rows  map[string]record.TaskRecord
	seqs  map[string]int64
	seq   int64
	clock func() time.Time
}

func NewMemoryTaskRepo() *MemoryTaskRepo {
	return &MemoryTaskRepo{
		rows:  make(map[string]record.TaskRecord),
		seqs:  make(map[string]int64),
		clock: time.Now,
	}
}

func (r *MemoryTaskRepo) SelectAll(_ context.Context, userID string) ([]record.TaskRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type keyed struct {
		rec     record.TaskRecord
		created time.Time
		seq     int64
	}
	var rows []keyed
	for id, rec := range r.rows {
		if rec.UserID != userID {
			continue
		}
		created, err := record.ParseTime(rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		rows = append(rows, keyed{rec: rec, created: created, seq: r.seqs[id]})
	}
	// Newest first; the insertion sequence breaks identical timestamps.
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].created.Equal(rows[j].created) {
			return rows[i].created.After(rows[j].created)
		}
		return rows[i].seq > rows[j].seq
	})

	out := make([]record.TaskRecord, len(rows))
	for i, k := range rows {
		out[i] = k.rec
	}
	return out, nil
}

func (r *MemoryTaskRepo) Insert(_ context.Context, rec record.TaskRecord) (record.TaskRecord, error) {
	if rec.DueDate != nil {
		if _, err := record.ParseTime(*rec.DueDate); err != nil {
			return rec, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	now := record.FormatTime(r.clock())
	rec.ID = uuid.NewString()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	r.rows[rec.ID] = rec
	r.seqs[rec.ID] = r.seq
	return rec, nil
}

func (r *MemoryTaskRepo) Update(_ context.Context, userID, id string, patch record.TaskPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.rows[id]
	if !ok || rec.UserID != userID {
		return ErrorNotFound
	}
	for col, v := range patch {
		switch col {
		case record.ColTitle:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("title must be text, got %T", v)
			}
			rec.Title = s
		case record.ColStatus:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("status must be text, got %T", v)
			}
			rec.Status = s
		case record.ColPriority:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("priority must be text, got %T", v)
			}
			rec.Priority = s
		case record.ColDescription:
			p, err := nullableText(v)
			if err != nil {
				return err
			}
			rec.Description = p
		case record.ColDueDate:
			p, err := nullableText(v)
			if err != nil {
				return err
			}
			if p != nil {
				if _, err := record.ParseTime(*p); err != nil {
					return err
				}
			}
			rec.DueDate = p
		default:
			return fmt.Errorf("column %q is not updatable", col)
		}
	}
	rec.UpdatedAt = record.FormatTime(r.clock())
	r.rows[id] = rec
	return nil
}

func (r *MemoryTaskRepo) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.rows[id]
	if !ok || rec.UserID != userID {
		return ErrorNotFound
	}
	delete(r.rows, id)
	delete(r.seqs, id)
	return nil
}

func nullableText(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected text or null, got %T", v)
	}
	return &s, nil
}

// MemoryProfileRepo is the in-process Profiles counterpart.
type MemoryProfileRepo struct {
	mu    sync.Mutex
	rows  map[string]record.ProfileRecord
	clock func() time.Time
}

func NewMemoryProfileRepo() *MemoryProfileRepo {
	return &MemoryProfileRepo{
		rows:  make(map[string]record.ProfileRecord),
		clock: time.Now,
	}
}

func (r *MemoryProfileRepo) Get(_ context.Context, userID string) (record.ProfileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.rows[userID]
	if !ok {
		return rec, ErrorNotFound
	}
	return rec, nil
}

func (r *MemoryProfileRepo) UpsertDisplayName(_ context.Context, userID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.rows[userID]
	rec.UserID = userID
	rec.DisplayName = &name
	rec.UpdatedAt = record.FormatTime(r.clock())
	r.rows[userID] = rec
	return nil
}

func (r *MemoryProfileRepo) SetAvatarURL(_ context.Context, userID string, url *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.rows[userID]
	rec.UserID = userID
	rec.AvatarURL = url
	rec.UpdatedAt = record.FormatTime(r.clock())
	r.rows[userID] = rec
	return nil
}
