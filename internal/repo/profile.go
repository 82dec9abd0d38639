package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/taskboard/internal/record"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (record.ProfileRecord, error) {
	var (
		rec     record.ProfileRecord
		updated time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, display_name, avatar_url, updated_at
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(&rec.UserID, &rec.DisplayName, &rec.AvatarURL, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, ErrorNotFound
	}
	if err != nil {
		return rec, err
	}
	rec.UpdatedAt = record.FormatTime(updated)
	return rec, nil
}

func (r *ProfileRepo) UpsertDisplayName(ctx context.Context, userID, name string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, display_name) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET display_name = EXCLUDED.display_name, updated_at = now()
	`, userID, name)
	return err
}

func (r *ProfileRepo) SetAvatarURL(ctx context.Context, userID string, url *string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, avatar_url) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET avatar_url = EXCLUDED.avatar_url, updated_at = now()
	`, userID, url)
	return err
}
