// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package team

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

// Routes returns the team management endpoints, rooted at /teams.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listTeams)
	router.Get("/{identifier}", handler.getTeam)

	// Mutations require managerial access.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleManager))
		r.Post("/", handler.createTeam)
		r.Put("/{id}", handler.renameTeam)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Delete("/{id}", handler.deleteTeam)
	})

	return router
}

func (handler *Handler) listTeams(writer http.ResponseWriter, request *http.Request) {
	teams, err := handler.service.ListTeams(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, teams)
}

func (handler *Handler) getTeam(writer http.ResponseWriter, request *http.Request) {
	identifier := requestutil.Param(request, "identifier")

	team, err := handler.service.GetTeam(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, team)
}

type teamRequest struct {
	Name string `json:"name"`
}

func (handler *Handler) createTeam(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input teamRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	team, err := handler.service.CreateTeam(request.Context(), input.Name, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, team)
}

func (handler *Handler) renameTeam(writer http.ResponseWriter, request *http.Request) {
	var input teamRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	team, err := handler.service.RenameTeam(request.Context(), requestutil.Param(request, "id"), input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, team)
}

func (handler *Handler) deleteTeam(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteTeam(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
