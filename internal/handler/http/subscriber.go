package http

import (
	"log/slog"
	"net/http"

	"github.com/Mehidi-hridoy/dokan/internal/service"
	"github.com/Mehidi-hridoy/dokan/pkg/httputil"
	"github.com/Mehidi-hridoy/dokan/pkg/pagination"
)

// SubscriberHandler exposes the newsletter signup list to admin tooling.
type SubscriberHandler struct {
	service *service.NewsletterService
	logger  *slog.Logger
}

// NewSubscriberHandler creates a new subscriber HTTP handler.
func NewSubscriberHandler(svc *service.NewsletterService, logger *slog.Logger) *SubscriberHandler {
	return &SubscriberHandler{
		service: svc,
		logger:  logger,
	}
}

// List handles GET /api/v1/subscribers
func (h *SubscriberHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	subscribers, total, err := h.service.ListSubscribers(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(subscribers, total, params.Page, params.PerPage))
}
