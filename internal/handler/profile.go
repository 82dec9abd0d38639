package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/auth"
	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/service"
	"github.com/BuzzLyutic/taskboard/pkg/respond"
)

type ProfileHandler struct {
	service  *service.ProfileService
	logger   *zap.Logger
	maxBytes int64
}

func NewProfileHandler(srv *service.ProfileService, logger *zap.Logger, maxBytes int64) *ProfileHandler {
	return &ProfileHandler{
		service:  srv,
		logger:   logger,
		maxBytes: maxBytes,
	}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, p)
}

type displayNameRequest struct {
	DisplayName string `json:"display_name"`
}

func (h *ProfileHandler) UpdateDisplayName(w http.ResponseWriter, r *http.Request) {
	var req displayNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	p, err := h.service.UpdateDisplayName(r.Context(), auth.UserID(r.Context()), req.DisplayName)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, p)
}

// UploadAvatar accepts a multipart form with the image in the "file" field.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	// Multipart framing needs some headroom above the image itself.
	limit := h.maxBytes + 1<<20
	if r.ContentLength > limit {
		handleErrors(w, r, h.logger, fmt.Errorf("%w: request body of %d bytes", service.ErrTooLarge, r.ContentLength))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			handleErrors(w, r, h.logger, fmt.Errorf("%w: request body over %d bytes", service.ErrTooLarge, tooBig.Limit))
			return
		}
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		handleErrors(w, r, h.logger, fmt.Errorf("%w: file is required", model.ErrValidation))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "failed to read file")
		return
	}

	p, err := h.service.UploadAvatar(r.Context(), auth.UserID(r.Context()), data)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, p)
}

func (h *ProfileHandler) RemoveAvatar(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.RemoveAvatar(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, p)
}

// ServeAvatar is public; avatar URLs are embedded in profiles as plain links.
func (h *ProfileHandler) ServeAvatar(w http.ResponseWriter, r *http.Request) {
	obj, err := h.service.Avatar(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'")
	w.WriteHeader(http.StatusOK)
	w.Write(obj.Data)
}
