// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package timesheet

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

// Routes returns the timesheet endpoints, rooted at /teams/{teamID}/timesheets.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.submit)
	router.Get("/mine", handler.listMine)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleManager))
		r.Get("/pending", handler.listPending)
		r.Post("/{id}/decision", handler.decide)
	})

	return router
}

type submitRequest struct {
	WeekStart  string  `json:"week_start"`
	TotalHours float64 `json:"total_hours"`
}

/*
POST /api/v1/teams/{teamID}/timesheets.

Description: Submits the caller's hours for one work week.

Request:
  - body: submitRequest (WeekStart as YYYY-MM-DD Monday, TotalHours)

Response:
  - 201: Timesheet: Created entity
  - 409: ErrConflict: Week already submitted
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

	sheet, err := handler.service.Submit(request.Context(), SubmitInput{
		UserID:     userID,
		TeamID:     requestutil.Param(request, "teamID"),
		WeekStart:  input.WeekStart,
		TotalHours: input.TotalHours,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, sheet)
}

/*
GET /api/v1/teams/{teamID}/timesheets/mine.

Description: Lists the caller's own submissions, newest week first.

Response:
  - 200: []Timesheet
*/
func (handler *Handler) listMine(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sheets, err := handler.service.ListMine(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sheets)
}

/*
GET /api/v1/teams/{teamID}/timesheets/pending.

Description: Lists the team's undecided timesheets. Managerial role required.

Response:
  - 200: []Timesheet
*/
func (handler *Handler) listPending(writer http.ResponseWriter, request *http.Request) {
	sheets, err := handler.service.ListPending(request.Context(), requestutil.Param(request, "teamID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sheets)
}

type decisionRequest struct {
	Decision string `json:"decision"`
}

/*
POST /api/v1/teams/{teamID}/timesheets/{id}/decision.

Description: Approves or rejects a pending timesheet. Managerial role required.

Response:
  - 200: Timesheet: Updated entity
  - 409: ErrConflict: Timesheet was already decided
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
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, decided)
}
