package model

import "time"

type Profile struct {
	UserID      string    `json:"user_id"`
	DisplayName *string   `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}
