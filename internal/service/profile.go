package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/avatar"
	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/notify"
	"github.com/BuzzLyutic/taskboard/internal/record"
	"github.com/BuzzLyutic/taskboard/internal/repo"
)

var ErrTooLarge = errors.New("avatar too large")

// avatarTypes maps the sniffed content types accepted as avatars to the stored
// file extension. Scriptable formats such as SVG are never accepted.
var avatarTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

type ProfileConfig struct {
	AvatarBaseURL  string
	AvatarMaxBytes int64
}

type ProfileService struct {
	profiles repo.Profiles
	avatars  avatar.ObjectStore
	notifier notify.Notifier
	logger   *zap.Logger
	cfg      ProfileConfig
	now      func() time.Time
}

func NewProfileService(profiles repo.Profiles, avatars avatar.ObjectStore, notifier notify.Notifier, logger *zap.Logger, cfg ProfileConfig) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if cfg.AvatarMaxBytes <= 0 {
		cfg.AvatarMaxBytes = 2 << 20
	}
	cfg.AvatarBaseURL = strings.TrimSuffix(cfg.AvatarBaseURL, "/")
	return &ProfileService{
		profiles: profiles,
		avatars:  avatars,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Get returns the stored profile, or a blank one for users without a row yet.
func (s *ProfileService) Get(ctx context.Context, userID string) (model.Profile, error) {
	rec, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, repo.ErrorNotFound) {
		return model.Profile{UserID: userID}, nil
	}
	if err != nil {
		s.logger.Error("fetch profile", zap.String("user_id", userID), zap.Error(err))
		return model.Profile{}, err
	}
	return record.ToProfile(rec)
}

func (s *ProfileService) UpdateDisplayName(ctx context.Context, userID, name string) (model.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Profile{}, fmt.Errorf("%w: display name is required", ErrValidation)
	}

	if err := s.profiles.UpsertDisplayName(ctx, userID, name); err != nil {
		return model.Profile{}, s.fail(ctx, userID, "Failed to update display name", err)
	}
	s.notifier.Notify(ctx, userID, notify.Success("Display name updated!"))
	return s.Get(ctx, userID)
}

// UploadAvatar stores the image at <user>/avatar.<ext>, replacing any
// previous one, and points the profile at it with a cache-busting query.
// The type is sniffed from the bytes; client-declared types and file names
// are ignored.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, data []byte) (model.Profile, error) {
	if int64(len(data)) > s.cfg.AvatarMaxBytes {
		return model.Profile{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(data), s.cfg.AvatarMaxBytes)
	}
	contentType := http.DetectContentType(data)
	if _, ok := avatarTypes[contentType]; !ok {
		return model.Profile{}, fmt.Errorf("%w: unsupported avatar type %q", ErrValidation, contentType)
	}

	objectPath := AvatarPath(userID, contentType)
	if err := s.avatars.Put(ctx, objectPath, contentType, data); err != nil {
		return model.Profile{}, s.fail(ctx, userID, "Failed to upload avatar", err)
	}

	url := fmt.Sprintf("%s/%s?t=%d", s.cfg.AvatarBaseURL, objectPath, s.now().UnixMilli())
	if err := s.profiles.SetAvatarURL(ctx, userID, &url); err != nil {
		return model.Profile{}, s.fail(ctx, userID, "Failed to update profile", err)
	}
	s.notifier.Notify(ctx, userID, notify.Success("Avatar updated!"))
	return s.Get(ctx, userID)
}

// RemoveAvatar clears the profile's avatar URL, then drops the stored object.
// A failed object delete is only logged; the next upload overwrites it.
func (s *ProfileService) RemoveAvatar(ctx context.Context, userID string) (model.Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	if p.AvatarURL == nil {
		return p, nil
	}

	if err := s.profiles.SetAvatarURL(ctx, userID, nil); err != nil {
		return model.Profile{}, s.fail(ctx, userID, "Failed to remove avatar", err)
	}
	if objectPath, ok := s.objectPath(*p.AvatarURL); ok {
		if err := s.avatars.Delete(ctx, objectPath); err != nil && !errors.Is(err, avatar.ErrNotFound) {
			s.logger.Warn("delete avatar object", zap.String("user_id", userID), zap.Error(err))
		}
	}
	s.notifier.Notify(ctx, userID, notify.Success("Avatar removed!"))
	return s.Get(ctx, userID)
}

// Avatar serves a stored image by its object path.
func (s *ProfileService) Avatar(ctx context.Context, objectPath string) (avatar.Object, error) {
	return s.avatars.Get(ctx, objectPath)
}

func (s *ProfileService) fail(ctx context.Context, userID, message string, err error) error {
	s.logger.Error(message, zap.String("user_id", userID), zap.Error(err))
	s.notifier.Notify(ctx, userID, notify.Error(message))
	return err
}

// objectPath recovers the object name from a URL built by UploadAvatar.
func (s *ProfileService) objectPath(url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, s.cfg.AvatarBaseURL+"/")
	if !ok {
		return "", false
	}
	rest, _, _ = strings.Cut(rest, "?")
	return rest, rest != ""
}

// AvatarPath names the object after the user and the accepted image type.
func AvatarPath(userID, contentType string) string {
	ext, ok := avatarTypes[contentType]
	if !ok {
		ext = "img"
	}
	return fmt.Sprintf("%s/avatar.%s", userID, ext)
}
