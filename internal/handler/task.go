package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/taskforce/taskmanager/internal/ctxkeys"
	"github.com/taskforce/taskmanager/internal/model"
	"github.com/taskforce/taskmanager/internal/service"
	"github.com/taskforce/taskmanager/internal/validation"
)

// sortFields maps accepted sortBy names onto task sort columns.
var sortFields = map[string]string{
	"created_at":  model.TaskSortCreatedAt,
	"createdAt":   model.TaskSortCreatedAt,
	"updated_at":  model.TaskSortUpdatedAt,
	"updatedAt":   model.TaskSortUpdatedAt,
	"description": model.TaskSortDescription,
	"completed":   model.TaskSortCompleted,
}

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var in service.TaskInput
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	opts, err := parseListOptions(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	tasks, err := h.taskService.List(r.Context(), user.ID, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if tasks == nil {
		tasks = []*model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	task, err := h.taskService.ByID(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var patch service.TaskPatch
	err := decodePatch(w, r, validation.TaskUpdatableFields, &patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.taskService.Update(r.Context(), user.ID, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	task, err := h.taskService.Delete(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// parseListOptions reads completed, limit, skip and sortBy=<field>:<asc|desc>.
func parseListOptions(q url.Values) (model.TaskListOptions, error) {
	var opts model.TaskListOptions
	verr := &validation.Error{}

	if v := q.Get("completed"); v != "" {
		switch v {
		case "true":
			opts.Completed = new(bool)
			*opts.Completed = true
		case "false":
			opts.Completed = new(bool)
		default:
			verr.Add("completed", "must be true or false")
		}
	}

	opts.Limit = parseCount(q, "limit", verr)
	opts.Skip = parseCount(q, "skip", verr)

	if v := q.Get("sortBy"); v != "" {
		field, dir, _ := strings.Cut(v, ":")
		column, ok := sortFields[field]
		switch {
		case !ok:
			verr.Add("sortBy", "cannot sort by "+field)
		case dir == "" || dir == "asc":
			opts.SortBy = column
		case dir == "desc":
			opts.SortBy = column
			opts.SortDesc = true
		default:
			verr.Add("sortBy", "direction must be asc or desc")
		}
	}

	return opts, verr.OrNil()
}

func parseCount(q url.Values, key string, verr *validation.Error) int {
	v := q.Get(key)
	if v == "" {
		return 0
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		verr.Add(key, "must be a non-negative integer")
		return 0
	}
	return n
}
