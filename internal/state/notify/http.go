// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package notify

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/billowria/teampulse/internal/gateway"
	"github.com/billowria/teampulse/internal/platform/apperr"
	"github.com/billowria/teampulse/internal/platform/database/schema"
	requestutil "github.com/billowria/teampulse/internal/platform/request"
	"github.com/billowria/teampulse/internal/platform/respond"
	"github.com/billowria/teampulse/internal/platform/validate"
	"github.com/billowria/teampulse/pkg/query"
	"github.com/billowria/teampulse/pkg/slice"
)

// Handler exposes the merged feed over HTTP. Each request runs the same
// full merge the aggregator uses, against the caller's identity.
type Handler struct {
	tables gateway.Tables
	logger *slog.Logger
}

func NewHandler(tables gateway.Tables, logger *slog.Logger) *Handler {
	return &Handler{tables: tables, logger: logger}
}

// Routes returns the notification endpoints, rooted at /me/notifications.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.getFeed)
	router.Post("/announcements/{id}/read", handler.markAnnouncementRead)
	router.Post("/{id}/dismiss", handler.dismiss)
	return router
}

type feedResponse struct {
	Items       []Item `json:"items"`
	UnreadCount int    `json:"unread_count"`
}

/*
GET /api/v1/me/notifications.

Description: Returns the caller's merged notification feed, newest first,
with the unread badge count. Manager-only sources appear only for
managerial roles. An optional ?types=leave_request,announcement parameter
narrows the feed to the named source types.

Response:
  - 200: feedResponse
*/
func (handler *Handler) getFeed(writer http.ResponseWriter, request *http.Request) {
	identity, err := handler.callerIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	items, err := fetchFeed(request.Context(), handler.tables, identity, time.Now().UTC())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if wanted := query.StringSlice(request.URL.Query().Get("types")); len(wanted) > 0 {
		items = slice.Filter(items, func(item Item) bool {
			return slices.Contains(wanted, item.Type)
		})
	}

	unread := slice.Count(items, func(item Item) bool { return !item.Read })
	if items == nil {
		items = []Item{}
	}

	respond.OK(writer, feedResponse{Items: items, UnreadCount: unread})
}

/*
POST /api/v1/me/notifications/announcements/{id}/read.

Description: Durably marks one announcement read for the caller.
Idempotent.

Response:
  - 204: Receipt stored
*/
func (handler *Handler) markAnnouncementRead(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	announcementID := requestutil.Param(request, "id")
	validator := &validate.Validator{}
	validator.UUID("id", announcementID)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := upsertReadReceipt(request.Context(), handler.tables, userID, announcementID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /api/v1/me/notifications/{id}/dismiss.

Description: Dismisses one feed item by its synthetic id. A leave-request
dismissal is recorded as a rejection of the underlying request, a
timesheet dismissal changes nothing remotely, an announcement dismissal
stores a read receipt.

Response:
  - 204: Dismissed
  - 400: Unrecognized notification id
*/
func (handler *Handler) dismiss(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	itemType, sourceID, ok := splitItemID(requestutil.Param(request, "id"))
	if !ok {
		respond.Error(writer, request, apperr.ValidationError("Unrecognized notification id"))
		return
	}

	switch itemType {
	case TypeLeaveRequest:
		handler.logger.Warn("leave notification dismissed, recording rejection of the request",
			"leave_id", sourceID, "user_id", userID)
		err = decideLeaveRequest(request.Context(), handler.tables, sourceID, "rejected")
	case TypeAnnouncement:
		err = upsertReadReceipt(request.Context(), handler.tables, userID, sourceID)
	case TypeTimesheet:
		// Purely a client-side hide, nothing to record.
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// callerIdentity assembles the feed identity from the verified claims
// plus the account's team binding.
func (handler *Handler) callerIdentity(request *http.Request) (Identity, error) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		return Identity{}, err
	}
	role, err := requestutil.RequiredRole(request)
	if err != nil {
		return Identity{}, err
	}

	rows, err := handler.tables.Read(request.Context(), schema.Accounts.Name,
		[]gateway.Filter{gateway.Eq("id", userID)},
		[]string{"teamid"},
	)
	if err != nil {
		return Identity{}, err
	}

	identity := Identity{UserID: userID, Role: role}
	if len(rows) > 0 {
		identity.TeamID = rowString(rows[0], "teamid")
	}
	return identity, nil
}
