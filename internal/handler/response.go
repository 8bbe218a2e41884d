package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/taskforce/taskmanager/internal/ctxkeys"
	"github.com/taskforce/taskmanager/internal/repository"
	"github.com/taskforce/taskmanager/internal/service"
	"github.com/taskforce/taskmanager/internal/validation"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

var errInvalidBody = errors.New("invalid request body")

type errorResponse struct {
	Error          string            `json:"error"`
	Fields         map[string]string `json:"fields,omitempty"`
	AllowedUpdates []string          `json:"allowed_updates,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps err onto a status code and body. Only unexpected errors are
// logged; the client sees a generic message for them.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	var uerr *validation.InvalidUpdateError
	var upErr *validation.UploadError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.As(err, &uerr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid updates", AllowedUpdates: uerr.Allowed})
	case errors.As(err, &upErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: upErr.Reason})
	case errors.Is(err, errInvalidBody):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errInvalidBody.Error()})
	case errors.Is(err, service.ErrAuthenticationFailed):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: service.ErrAuthenticationFailed.Error()})
	case errors.Is(err, repository.ErrTaskNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, service.ErrAvatarNotFound):
		w.WriteHeader(http.StatusNotFound)
	default:
		attrs := []any{"method", r.Method, "path", r.URL.Path, "error", err}
		if user := ctxkeys.User(r.Context()); user != nil {
			attrs = append(attrs, "user_id", user.ID)
		}
		slog.Error("request failed", attrs...)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// decodeJSON reads a single JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return errInvalidBody
	}
	return unmarshal(body, dst)
}

// decodePatch reads a partial update. Keys outside allowed fail the whole
// request before anything is decoded into dst.
func decodePatch(w http.ResponseWriter, r *http.Request, allowed []string, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return errInvalidBody
	}

	var fields map[string]json.RawMessage
	err = json.Unmarshal(body, &fields)
	if err != nil {
		return errInvalidBody
	}

	keys := slices.Sorted(maps.Keys(fields))
	err = validation.ValidateUpdate(keys, allowed)
	if err != nil {
		return err
	}

	// null would otherwise decode as an absent pointer and silently do nothing.
	verr := &validation.Error{}
	for _, k := range keys {
		if bytes.Equal(bytes.TrimSpace(fields[k]), []byte("null")) {
			verr.Add(k, "cannot be null")
		}
	}
	err = verr.OrNil()
	if err != nil {
		return err
	}

	return unmarshal(body, dst)
}

// unmarshal reports a wrongly typed field as a validation error on that field.
func unmarshal(body []byte, dst any) error {
	err := json.Unmarshal(body, dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return validation.NewError(typeErr.Field, "has the wrong type")
	}
	return errInvalidBody
}
