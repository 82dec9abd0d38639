package repo

import (
	"context"
	"errors"

	"github.com/BuzzLyutic/taskboard/internal/record"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

// TaskRecords is the remote task collection, scoped by user id.
type TaskRecords interface {
	SelectAll(ctx context.Context, userID string) ([]record.TaskRecord, error)
	Insert(ctx context.Context, r record.TaskRecord) (record.TaskRecord, error)
	Update(ctx context.Context, userID, id string, patch record.TaskPatch) error
	Delete(ctx context.Context, userID, id string) error
}

// Profiles stores one profile row per user.
type Profiles interface {
	Get(ctx context.Context, userID string) (record.ProfileRecord, error)
	UpsertDisplayName(ctx context.Context, userID, name string) error
	SetAvatarURL(ctx context.Context, userID string, url *string) error
}
