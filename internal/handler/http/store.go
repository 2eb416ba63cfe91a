package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Mehidi-hridoy/dokan/internal/dispatch"
	"github.com/Mehidi-hridoy/dokan/internal/domain"
	"github.com/Mehidi-hridoy/dokan/internal/store"
	"github.com/Mehidi-hridoy/dokan/internal/task"
	"github.com/Mehidi-hridoy/dokan/pkg/httputil"
)

// StoreHandler exposes the storefront controller: firing triggers, badge
// counts, notices, page bootstrap, scroll reveal checks and task lookups.
type StoreHandler struct {
	controller *store.Controller
	logger     *slog.Logger
}

// NewStoreHandler creates a new storefront HTTP handler.
func NewStoreHandler(controller *store.Controller, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{
		controller: controller,
		logger:     logger,
	}
}

// FireTriggerRequest is the JSON request body for firing a trigger. Attrs
// carries the data attributes the triggering element held.
type FireTriggerRequest struct {
	Attrs map[string]string `json:"attrs"`
}

// TaskRef is the queryable handle to a scheduled task.
type TaskRef struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Status    task.Status `json:"status"`
	StartedAt time.Time   `json:"started_at"`
}

// TriggerResponse is the JSON shape of a trigger result.
type TriggerResponse struct {
	Notice *domain.Notice   `json:"notice,omitempty"`
	Badges *dispatch.Badges `json:"badges,omitempty"`
	Data   any              `json:"data,omitempty"`
	Task   *TaskRef         `json:"task,omitempty"`
}

func newTaskRef(t *task.Task) *TaskRef {
	if t == nil {
		return nil
	}
	return &TaskRef{
		ID:        t.ID,
		Name:      t.Name,
		Status:    t.Status(),
		StartedAt: t.StartedAt,
	}
}

// FireTrigger handles POST /api/v1/store/triggers/{name}
func (h *StoreHandler) FireTrigger(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req FireTriggerRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
			})
			return
		}
	}

	result, err := h.controller.Fire(r.Context(), sessionFromContext(r.Context()), name, req.Attrs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: TriggerResponse{
		Notice: result.Notice,
		Badges: result.Badges,
		Data:   result.Data,
		Task:   newTaskRef(result.Task),
	}})
}

// ListTriggers handles GET /api/v1/store/triggers
func (h *StoreHandler) ListTriggers(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string][]string{"triggers": h.controller.Triggers()},
	})
}

// GetBadges handles GET /api/v1/store/badges
func (h *StoreHandler) GetBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.controller.Badges(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: badges})
}

// ListNotices handles GET /api/v1/store/notices
func (h *StoreHandler) ListNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := h.controller.Notices(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if notices == nil {
		notices = []domain.Notice{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: notices})
}

// DismissNotice handles DELETE /api/v1/store/notices/{noticeID}
func (h *StoreHandler) DismissNotice(w http.ResponseWriter, r *http.Request) {
	noticeID := chi.URLParam(r, "noticeID")

	if err := h.controller.DismissNotice(r.Context(), sessionFromContext(r.Context()), noticeID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "dismissed"}})
}

// Bootstrap handles POST /api/v1/store/bootstrap
func (h *StoreHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	var geo store.Geometry
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&geo); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
			})
			return
		}
	}

	state, err := h.controller.Bootstrap(r.Context(), sessionFromContext(r.Context()), geo)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: state})
}

// Scroll handles POST /api/v1/store/scroll
func (h *StoreHandler) Scroll(w http.ResponseWriter, r *http.Request) {
	var geo store.Geometry
	if err := json.NewDecoder(r.Body).Decode(&geo); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	result, err := h.controller.Scroll(r.Context(), sessionFromContext(r.Context()), geo)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// GetTask handles GET /api/v1/store/tasks/{taskID}
func (h *StoreHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	t, ok := h.controller.Task(taskID)
	if !ok {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "NOT_FOUND", Message: "task not found"},
		})
		return
	}

	ref := newTaskRef(t)
	if t.Status() == task.StatusDone {
		if err := t.Err(); err != nil {
			httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
				"task":  ref,
				"error": err.Error(),
			}})
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"task": ref}})
}
