package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/auth"
	"github.com/BuzzLyutic/taskboard/internal/notify"
	"github.com/BuzzLyutic/taskboard/pkg/respond"
)

type NotificationHandler struct {
	feed   notify.Feed
	logger *zap.Logger
}

func NewNotificationHandler(feed notify.Feed, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{feed: feed, logger: logger}
}

// Drain returns and clears the caller's pending notifications, oldest first.
func (h *NotificationHandler) Drain(w http.ResponseWriter, r *http.Request) {
	items, err := h.feed.Drain(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, items)
}
