package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/taskforce/taskmanager/internal/ctxkeys"
	"github.com/taskforce/taskmanager/internal/service"
	"github.com/taskforce/taskmanager/internal/validation"
)

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 64 << 10

type AvatarHandler struct {
	avatarService *service.AvatarService
}

func NewAvatarHandler(avatarService *service.AvatarService) *AvatarHandler {
	return &AvatarHandler{avatarService: avatarService}
}

func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	maxBytes := h.avatarService.MaxBytes()

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	err := r.ParseMultipartForm(maxBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, &validation.UploadError{Reason: "file too large: maximum size is " + strconv.FormatInt(maxBytes, 10) + " bytes"})
			return
		}
		writeError(w, r, &validation.UploadError{Reason: "please upload an image in the avatar field"})
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, r, &validation.UploadError{Reason: "please upload an image in the avatar field"})
		return
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close file", "error", closeErr)
		}
	}()

	err = h.avatarService.Upload(r.Context(), user.ID, header, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *AvatarHandler) Mine(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, ctxkeys.User(r.Context()).ID)
}

func (h *AvatarHandler) ByUserID(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, r.PathValue("id"))
}

func (h *AvatarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.avatarService.Remove(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *AvatarHandler) serve(w http.ResponseWriter, r *http.Request, userID string) {
	data, err := h.avatarService.Avatar(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, err = w.Write(data)
	if err != nil {
		slog.Debug("failed to write avatar", "user_id", userID, "error", err)
	}
}
