// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package leave

import (
	"net/http"

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

// Routes returns the leave-request endpoints, rooted at /teams/{teamID}/leave-requests.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.submit)
	router.Get("/mine", handler.listMine)

	// The pending queue and decisions are a manager surface.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleManager))
		r.Get("/pending", handler.listPending)
		r.Post("/{id}/decision", handler.decide)
	})

	return router
}

type submitRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

/*
POST /api/v1/teams/{teamID}/leave-requests.

Description: Submits a new leave request in pending state.

Request:
  - body: submitRequest (StartDate, EndDate, Reason)

Response:
  - 201: Request: Created entity
  - 400: Validation failure
*/
func (handler *Handler) submit(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input submitRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	leaveRequest, err := handler.service.Submit(request.Context(), SubmitInput{
		RequesterID: userID,
		TeamID:      requestutil.Param(request, "teamID"),
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Reason:      input.Reason,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, leaveRequest)
}

/*
GET /api/v1/teams/{teamID}/leave-requests/mine.

Description: Lists the caller's own submission history, newest first.

Response:
  - 200: []Request
*/
func (handler *Handler) listMine(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	requests, err := handler.service.ListMine(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, requests)
}

/*
GET /api/v1/teams/{teamID}/leave-requests/pending.

Description: Lists the team's undecided requests. Managerial role required.

Response:
  - 200: []Request
  - 403: ErrForbidden: Managerial role required
*/
func (handler *Handler) listPending(writer http.ResponseWriter, request *http.Request) {
	requests, err := handler.service.ListPending(request.Context(), requestutil.Param(request, "teamID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, requests)
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

/*
POST /api/v1/teams/{teamID}/leave-requests/{id}/decision.

Description: Approves or rejects a pending request. Managerial role required.

Request:
  - body: decisionRequest (Decision: approved|rejected, Note)

Response:
  - 200: Request: Updated entity
  - 409: ErrConflict: Request was already decided
*/
func (handler *Handler) decide(writer http.ResponseWriter, request *http.Request) {
	deciderID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input decisionRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	decided, err := handler.service.Decide(
		request.Context(),
		requestutil.Param(request, "id"),
		deciderID,
		input.Decision,
		input.Note,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, decided)
}
