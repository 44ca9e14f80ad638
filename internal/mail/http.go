// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package mail

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/launchkit/launchkit/internal/platform/respond"
	"github.com/launchkit/launchkit/pkg/pagination"
)

// Handler exposes the staff-only email audit surface.
type Handler struct {
	mailService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{mailService: service}
}

// RegisterAdminRoutes attaches the staff-only audit endpoints to the given
// router. The caller is expected to guard it with RequireStaff.
func (handler *Handler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/emails", handler.emails)
}

/*
Emails lists every recorded delivery attempt newest-first.

GET /api/v1/admin/emails

Response:
  - 200: Paginated audit rows
  - 403: Caller is not staff
*/
func (handler *Handler) emails(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)

	records, total, err := handler.mailService.History(request.Context(), page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, records, pagination.NewMeta(page.Page, page.Limit, total))
}
