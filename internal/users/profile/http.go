// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

/*
HTTP delivery layer for profile and session management.

It implements the RESTful interface for users to interact with their account
data, avatars, and active sessions, plus the admin surface for workspace
membership.

# Security

All endpoints in this package require an active authentication session
provided by the RequireAuth middleware. Administrative endpoints additionally
require the admin role.
*/
package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/billowria/teampulse/internal/platform/middleware"
	requestutil "github.com/billowria/teampulse/internal/platform/request"
	"github.com/billowria/teampulse/internal/platform/respond"
	"github.com/billowria/teampulse/internal/platform/sec"
	"github.com/billowria/teampulse/internal/platform/validate"
	"github.com/billowria/teampulse/pkg/pagination"
)

// maxAvatarBytes caps avatar uploads at 5 MiB.
const maxAvatarBytes = 5 << 20

// Handler implements the HTTP layer for user profile management.
type Handler struct {
	profileService *Service
}

// NewHandler constructs a new profile [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{profileService: service}
}

// Routes returns a [chi.Router] configured with the profile domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Profile Management
	router.Get("/me", handler.getMe)
	router.Patch("/me", handler.updateMe)
	router.Post("/me/avatar", handler.uploadAvatar)

	// Session Security
	router.Get("/me/sessions", handler.listSessions)
	router.Delete("/me/sessions", handler.revokeOtherSessions)
	router.Delete("/me/sessions/{id}", handler.revokeSession)

	// Public profile discovery
	router.Get("/users/{id}", handler.getUserProfile)

	// Workspace administration
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Put("/admin/users/{id}/role", handler.changeRole)
		r.Put("/admin/users/{id}/team", handler.assignTeam)
		r.Post("/admin/users/{id}/deactivate", handler.deactivate)
	})

	return router
}

// # Profile Endpoints

/*
GET /api/v1/me.

Description: Retrieves the full private profile of the authenticated user.

Response:
  - 200: User: Fully hydrated user profile
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.profileService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// updateMeRequest defines the expected JSON payload for profile updates.
type updateMeRequest struct {
	DisplayName *string `json:"display_name"`
	Username    *string `json:"username"`
}

/*
PATCH /api/v1/me.

Description: Applies partial updates to the authenticated user's profile.

Request:
  - body: updateMeRequest (Partial JSON)

Response:
  - 200: User: The updated profile
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.Username != nil {
		validator.Required("username", *input.Username).MinLen("username", *input.Username, 3)
	}
	if input.DisplayName != nil {
		validator.MaxLen("display_name", *input.DisplayName, 120)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.profileService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		DisplayName: input.DisplayName,
		Username:    input.Username,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
POST /api/v1/me/avatar.

Description: Accepts a multipart upload and replaces the user's avatar.

Request:
  - multipart form field "avatar": image file (png/jpg/gif/webp, max 5 MiB)

Response:
  - 200: {avatar_url}: Public URL of the stored avatar
  - 422: Unsupported image format
*/
func (handler *Handler) uploadAvatar(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	request.Body = http.MaxBytesReader(writer, request.Body, maxAvatarBytes)
	file, header, err := request.FormFile("avatar")
	if err != nil {
		respond.Error(writer, request, validate.RequiredError("avatar", "file is required"))
		return
	}
	defer file.Close()

	avatarURL, err := handler.profileService.UploadAvatar(request.Context(), userID, header.Filename, file)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"avatar_url": avatarURL})
}

/*
GET /api/v1/users/{id}.

Description: Retrieves the public projection of any user profile.

Response:
  - 200: PublicProfile
  - 404: ErrNotFound: Unknown user
*/
func (handler *Handler) getUserProfile(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	validator := &validate.Validator{}
	validator.UUID("id", id)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	publicProfile, err := handler.profileService.GetPublicProfile(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, publicProfile)
}

// TeamMembers returns the roster listing endpoint. It lives under the
// team route tree, so the server mounts it there rather than through
// [Handler.Routes].
func (handler *Handler) TeamMembers() http.HandlerFunc {
	return handler.listTeamMembers
}

/*
GET /api/v1/teams/{teamID}/members.

Description: Lists the active members of a team as public profiles, paginated.

Response:
  - 200: []PublicProfile with pagination metadata
*/
func (handler *Handler) listTeamMembers(writer http.ResponseWriter, request *http.Request) {
	teamID := requestutil.Param(request, "teamID")

	validator := &validate.Validator{}
	validator.UUID("teamID", teamID)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)

	members, total, err := handler.profileService.ListTeamMembers(request.Context(), teamID, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, members, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

// # Session Security Endpoints

/*
GET /api/v1/me/sessions.

Description: Lists all active device sessions for the authenticated user.

Response:
  - 200: []SessionInfo
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.profileService.ListSessions(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

/*
DELETE /api/v1/me/sessions/{id}.

Description: Revokes one device session owned by the authenticated user.

Response:
  - 204: No Content
  - 404: ErrNotFound: Session does not exist or is not owned by the user
*/
func (handler *Handler) revokeSession(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionID := requestutil.Param(request, "id")
	if err := handler.profileService.RevokeSession(request.Context(), userID, sessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
DELETE /api/v1/me/sessions.

Description: Revokes every session except the one making this request.

Response:
  - 204: No Content
*/
func (handler *Handler) revokeOtherSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	currentSessionID := request.URL.Query().Get("current")
	if err := handler.profileService.RevokeOtherSessions(request.Context(), userID, currentSessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Administration Endpoints

type changeRoleRequest struct {
	Role string `json:"role"`
}

/*
PUT /api/v1/admin/users/{id}/role.

Description: Replaces the role of a target account. Admin only.

Request:
  - body: changeRoleRequest (Role: member|manager|admin)

Response:
  - 204: No Content
  - 400: Validation: Unknown role
  - 403: ErrForbidden: Not an admin, or self-demotion attempt
*/
func (handler *Handler) changeRole(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changeRoleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	targetID := requestutil.Param(request, "id")
	if err := handler.profileService.ChangeRole(request.Context(), actorID, targetID, input.Role); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

type assignTeamRequest struct {
	TeamID string `json:"team_id"`
}

/*
PUT /api/v1/admin/users/{id}/team.

Description: Moves a target account to a team (empty team_id detaches). Admin only.

Response:
  - 204: No Content
*/
func (handler *Handler) assignTeam(writer http.ResponseWriter, request *http.Request) {
	var input assignTeamRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.TeamID != "" {
		validator.UUID("team_id", input.TeamID)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	targetID := requestutil.Param(request, "id")
	if err := handler.profileService.AssignTeam(request.Context(), targetID, input.TeamID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /api/v1/admin/users/{id}/deactivate.

Description: Disables access for a target account and revokes its sessions. Admin only.

Response:
  - 204: No Content
*/
func (handler *Handler) deactivate(writer http.ResponseWriter, request *http.Request) {
	targetID := requestutil.Param(request, "id")

	if err := handler.profileService.DeactivateAccount(request.Context(), targetID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
