// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package prefs

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/billowria/teampulse/internal/gateway"
	"github.com/billowria/teampulse/internal/platform/database/schema"
	requestutil "github.com/billowria/teampulse/internal/platform/request"
	"github.com/billowria/teampulse/internal/platform/respond"
	"github.com/billowria/teampulse/internal/platform/validate"
)

// Handler exposes the remote copy of a user's preferences. It reads and
// writes the same profile field the reconciler's debounced writer targets.
type Handler struct {
	tables gateway.Tables
}

func NewHandler(tables gateway.Tables) *Handler {
	return &Handler{tables: tables}
}

// Routes returns the preference endpoints, rooted at /me/preferences.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.getPreferences)
	router.Put("/", handler.putPreferences)
	return router
}

/*
GET /api/v1/me/preferences.

Description: Returns the caller's durable preference object. An account
with no stored preferences yields the documented defaults.

Response:
  - 200: Preferences
*/
func (handler *Handler) getPreferences(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	rows, err := handler.tables.Read(
		request.Context(),
		schema.Accounts.Name,
		[]gateway.Filter{gateway.Eq("id", userID)},
		[]string{"preferences"},
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	preferences := Default()
	if len(rows) > 0 {
		preferences = decodeFlags(preferences, remoteFlags(rows[0]["preferences"]))
	}

	respond.OK(writer, preferences)
}

/*
PUT /api/v1/me/preferences.

Description: Replaces the caller's durable preference object wholesale.

Request:
  - body: Preferences

Response:
  - 200: Preferences: Stored state
  - 400: Validation failure on an unknown theme mode
*/
func (handler *Handler) putPreferences(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Preferences
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.OneOf(FlagThemeMode, string(input.ThemeMode), KnownThemeModes...)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	_, err = handler.tables.Upsert(
		request.Context(),
		schema.Accounts.Name,
		gateway.Row{"id": userID, "preferences": encodeFlags(input)},
		[]string{"id"},
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, input)
}
