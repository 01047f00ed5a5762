// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package announcement

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/billowria/teampulse/internal/platform/middleware"
	requestutil "github.com/billowria/teampulse/internal/platform/request"
	"github.com/billowria/teampulse/internal/platform/respond"
	"github.com/billowria/teampulse/internal/platform/sec"
	"github.com/billowria/teampulse/internal/platform/validate"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the announcement endpoints, rooted at /teams/{teamID}/announcements.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listActive)
	router.Post("/{id}/read", handler.markRead)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleManager))
		r.Post("/", handler.create)
	})

	return router
}

type createRequest struct {
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Priority  string     `json:"priority"`
	ExpiresAt *time.Time `json:"expires_at"`
}

/*
POST /api/v1/teams/{teamID}/announcements.

Description: Posts a new announcement to the team. Managerial role required.

Request:
  - body: createRequest (Title, Message, Priority, ExpiresAt)

Response:
  - 201: Announcement: Created entity
  - 400: Validation failure
  - 403: ErrForbidden: Managerial role required
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	announcement, err := handler.service.Create(request.Context(), CreateInput{
		TeamID:    requestutil.Param(request, "teamID"),
		AuthorID:  userID,
		Title:     input.Title,
		Message:   input.Message,
		Priority:  input.Priority,
		ExpiresAt: input.ExpiresAt,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, announcement)
}

/*
GET /api/v1/teams/{teamID}/announcements.

Description: Lists the team's unexpired announcements with the caller's
read receipts, newest first.

Response:
  - 200: []Announcement
*/
func (handler *Handler) listActive(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	announcements, err := handler.service.ListActive(request.Context(), requestutil.Param(request, "teamID"), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, announcements)
}

/*
POST /api/v1/teams/{teamID}/announcements/{id}/read.

Description: Durably marks the announcement as read for the caller. Idempotent.

Response:
  - 204: No Content
  - 404: ErrNotFound: Unknown announcement
*/
func (handler *Handler) markRead(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.MarkRead(request.Context(), requestutil.Param(request, "id"), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
