package record

import "github.com/BuzzLyutic/taskboard/internal/model"

type ProfileRecord struct {
	UserID      string  `json:"user_id"`
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	UpdatedAt   string  `json:"updated_at"`
}

func ToProfile(r ProfileRecord) (model.Profile, error) {
	updated, err := ParseTime(r.UpdatedAt)
	if err != nil {
		return model.Profile{}, err
	}
	return model.Profile{
		UserID:      r.UserID,
		DisplayName: r.DisplayName,
		AvatarURL:   r.AvatarURL,
		UpdatedAt:   updated,
	}, nil
}
