package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/taskboard/internal/record"
)

func strPtr(s string) *string { return &s }

func seed(title string) record.TaskRecord {
	return record.TaskRecord{UserID: "u1", Title: title, Status: "pending", Priority: "medium"}
}

// runTaskRecordsSuite checks behavior every TaskRecords implementation shares.
func runTaskRecordsSuite(t *testing.T, newRecords func(t *testing.T) TaskRecords) {
	ctx := context.Background()

	t.Run("insert assigns id and timestamps", func(t *testing.T) {
		r := newRecords(t)
		rec := seed("Write docs")
		rec.Description = strPtr("chapter 1")
		rec.DueDate = strPtr("2024-05-01T00:00:00Z")

		got, err := r.Insert(ctx, rec)

		require.NoError(t, err)
		assert.NotEmpty(t, got.ID)
		assert.NotEmpty(t, got.CreatedAt)
		assert.Equal(t, got.CreatedAt, got.UpdatedAt)
		assert.Equal(t, "chapter 1", *got.Description)
		due, err := record.ParseTime(*got.DueDate)
		require.NoError(t, err)
		assert.True(t, due.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("select all is newest first and scoped", func(t *testing.T) {
		r := newRecords(t)
		for _, title := range []string{"first", "second", "third"} {
			_, err := r.Insert(ctx, seed(title))
			require.NoError(t, err)
			time.Sleep(2 * time.Millisecond)
		}
		other := seed("not mine")
		other.UserID = "u2"
		_, err := r.Insert(ctx, other)
		require.NoError(t, err)

		got, err := r.SelectAll(ctx, "u1")

		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "third", got[0].Title)
		assert.Equal(t, "first", got[2].Title)
	})

	t.Run("update writes only patched columns", func(t *testing.T) {
		r := newRecords(t)
		rec := seed("Plan")
		rec.Description = strPtr("keep me")
		created, err := r.Insert(ctx, rec)
		require.NoError(t, err)

		err = r.Update(ctx, "u1", created.ID, record.TaskPatch{
			record.ColStatus:  "completed",
			record.ColDueDate: "2024-06-01T12:00:00Z",
		})
		require.NoError(t, err)

		got, err := r.SelectAll(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "completed", got[0].Status)
		assert.Equal(t, "Plan", got[0].Title)
		assert.Equal(t, "keep me", *got[0].Description)
		require.NotNil(t, got[0].DueDate)
	})

	t.Run("nil patch value clears column", func(t *testing.T) {
		r := newRecords(t)
		rec := seed("Plan")
		rec.Description = strPtr("drop me")
		created, err := r.Insert(ctx, rec)
		require.NoError(t, err)

		require.NoError(t, r.Update(ctx, "u1", created.ID, record.TaskPatch{record.ColDescription: nil}))

		got, err := r.SelectAll(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, got[0].Description)
	})

	t.Run("update rejects unknown column", func(t *testing.T) {
		r := newRecords(t)
		created, err := r.Insert(ctx, seed("Plan"))
		require.NoError(t, err)

		err = r.Update(ctx, "u1", created.ID, record.TaskPatch{"user_id": "u2"})

		assert.Error(t, err)
	})

	t.Run("missing or foreign rows are not found", func(t *testing.T) {
		r := newRecords(t)
		created, err := r.Insert(ctx, seed("Plan"))
		require.NoError(t, err)

		assert.ErrorIs(t, r.Update(ctx, "u2", created.ID, record.TaskPatch{record.ColTitle: "x"}), ErrorNotFound)
		assert.ErrorIs(t, r.Delete(ctx, "u2", created.ID), ErrorNotFound)
		assert.ErrorIs(t, r.Delete(ctx, "u1", "missing"), ErrorNotFound)
	})

	t.Run("delete removes row", func(t *testing.T) {
		r := newRecords(t)
		created, err := r.Insert(ctx, seed("Plan"))
		require.NoError(t, err)

		require.NoError(t, r.Delete(ctx, "u1", created.ID))

		got, err := r.SelectAll(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func runProfilesSuite(t *testing.T, newProfiles func(t *testing.T) Profiles) {
	ctx := context.Background()

	t.Run("missing profile", func(t *testing.T) {
		_, err := newProfiles(t).Get(ctx, "nobody")
		assert.ErrorIs(t, err, ErrorNotFound)
	})

	t.Run("upserts keep other columns", func(t *testing.T) {
		p := newProfiles(t)
		require.NoError(t, p.UpsertDisplayName(ctx, "u1", "Ann"))
		require.NoError(t, p.SetAvatarURL(ctx, "u1", strPtr("http://x/u1/avatar.png")))
		require.NoError(t, p.UpsertDisplayName(ctx, "u1", "Anna"))

		got, err := p.Get(ctx, "u1")

		require.NoError(t, err)
		assert.Equal(t, "Anna", *got.DisplayName)
		assert.Equal(t, "http://x/u1/avatar.png", *got.AvatarURL)
		assert.NotEmpty(t, got.UpdatedAt)

		require.NoError(t, p.SetAvatarURL(ctx, "u1", nil))
		got, err = p.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, got.AvatarURL)
	})
}
