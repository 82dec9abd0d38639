package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/taskboard/internal/record"
)

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{
		pool: pool,
	}
}

func (r *TaskRepo) SelectAll(ctx context.Context, userID string) ([]record.TaskRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, description, status, priority, due_date, created_at, updated_at
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []record.TaskRecord
	for rows.Next() {
		rec, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *TaskRepo) Insert(ctx context.Context, rec record.TaskRecord) (record.TaskRecord, error) {
	due, err := dueValue(rec.DueDate)
	if err != nil {
		return rec, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, user_id, title, description, status, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, title, description, status, priority, due_date, created_at, updated_at
	`, uuid.NewString(), rec.UserID, rec.Title, rec.Description, rec.Status, rec.Priority, due)

	created, err := scanTask(row)
	return created, r.mapError(err)
}

// Update writes only the patched columns. An empty patch still refreshes
// updated_at so the existence check happens server-side.
func (r *TaskRepo) Update(ctx context.Context, userID, id string, patch record.TaskPatch) error {
	cols := make([]string, 0, len(patch))
	for col := range patch {
		if !patchable[col] {
			return fmt.Errorf("column %q is not updatable", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := []any{id, userID}
	set := make([]string, 0, len(cols)+1)
	for _, col := range cols {
		v := patch[col]
		if col == record.ColDueDate && v != nil {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("due_date must be iso text, got %T", v)
			}
			due, err := dueValue(&s)
			if err != nil {
				return err
			}
			v = due
		}
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	set = append(set, "updated_at = now()")

	cmd, err := r.pool.Exec(ctx,
		"UPDATE tasks SET "+strings.Join(set, ", ")+" WHERE id = $1 AND user_id = $2",
		args...)
	if err != nil {
		return r.mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, userID, id string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

var patchable = map[string]bool{
	record.ColTitle:       true,
	record.ColDescription: true,
	record.ColStatus:      true,
	record.ColPriority:    true,
	record.ColDueDate:     true,
}

func scanTask(row pgx.Row) (record.TaskRecord, error) {
	var (
		rec              record.TaskRecord
		due              *time.Time
		created, updated time.Time
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Description, &rec.Status,
		&rec.Priority, &due, &created, &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, ErrorNotFound
		}
		return rec, err
	}
	if due != nil {
		s := record.FormatTime(*due)
		rec.DueDate = &s
	}
	rec.CreatedAt = record.FormatTime(created)
	rec.UpdatedAt = record.FormatTime(updated)
	return rec, nil
}

func dueValue(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := record.ParseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}
