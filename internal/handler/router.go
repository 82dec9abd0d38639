package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/auth"
	"github.com/BuzzLyutic/taskboard/pkg/logger"
	"github.com/BuzzLyutic/taskboard/pkg/respond"
)

type RouterDeps struct {
	Tasks          *TaskHandler
	Profiles       *ProfileHandler
	Notifications  *NotificationHandler
	Verifier       *auth.Verifier
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(d.Logger))
	r.Use(middleware.Recoverer)
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/avatars/*", d.Profiles.ServeAvatar)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(d.Verifier, d.Logger))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", d.Tasks.List)
			r.Post("/", d.Tasks.Create)
			r.Post("/reload", d.Tasks.Reload)
			r.Get("/board", d.Tasks.Board)
			r.Get("/counts", d.Tasks.Counts)
			r.Get("/filter", d.Tasks.GetFilter)
			r.Put("/filter", d.Tasks.SetFilter)
			r.Get("/sort", d.Tasks.GetSort)
			r.Put("/sort", d.Tasks.SetSort)
			r.Get("/{id}", d.Tasks.Get)
			r.Patch("/{id}", d.Tasks.Update)
			r.Put("/{id}/status", d.Tasks.SetStatus)
			r.Delete("/{id}", d.Tasks.Delete)
		})

		r.Get("/notifications", d.Notifications.Drain)

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", d.Profiles.Get)
			r.Put("/display-name", d.Profiles.UpdateDisplayName)
			r.Post("/avatar", d.Profiles.UploadAvatar)
			r.Delete("/avatar", d.Profiles.RemoveAvatar)
		})
	})

	return r
}
