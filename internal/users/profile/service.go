// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package profile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/billowria/teampulse/internal/gateway"
	"github.com/billowria/teampulse/internal/platform/apperr"
	"github.com/billowria/teampulse/internal/platform/sec"
	"github.com/billowria/teampulse/internal/users/auth"
	"github.com/billowria/teampulse/pkg/pointer"
	"github.com/billowria/teampulse/pkg/uuid"
)

// AvatarBucket is the object-store bucket holding user avatar images.
const AvatarBucket = "avatars"

// # Service Layer

// Service orchestrates business logic for user profiles and workspace membership.
//
// It ensures that profile updates, avatar uploads, and session security cleanup
// follow established business constraints.
type Service struct {
	profileRepository ProfileRepository
	sessionRepository SessionRepository
	objectStorage     gateway.Storage
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(
	profileRepo ProfileRepository,
	sessionRepo SessionRepository,
	storage gateway.Storage,
	logger *slog.Logger,
) *Service {
	return &Service{
		profileRepository: profileRepo,
		sessionRepository: sessionRepo,
		objectStorage:     storage,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: The hydrated user profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*auth.User, error) {
	user, err := service.profileRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("profile_service_get_failed: %w", err)
	}
	return user, nil
}

/*
GetPublicProfile retrieves the externally visible projection of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *PublicProfile: Transport-safe profile subset
  - error: Not found or execution failures
*/
func (service *Service) GetPublicProfile(context context.Context, userID string) (*PublicProfile, error) {
	user, err := service.profileRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("profile_service_public_get_failed: %w", err)
	}
	return AsPublic(user), nil
}

// UpdateProfileInput defines the mutable subset of user profile fields.
type UpdateProfileInput struct {
	DisplayName *string
	Username    *string
}

/*
UpdateProfile applies a partial set of changes to a user's account metadata.

Description: Fetches the existing user state, overrides provided fields, and
synchronizes the change to persistent storage.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: Update or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {

	user, err := service.profileRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("profile_service_update_lookup_failed: %w", err)
	}

	// Apply delta updates, keeping current values for absent fields
	user.DisplayName = pointer.Fallback(input.DisplayName, user.DisplayName)
	user.Username = pointer.Fallback(input.Username, user.Username)

	if err := service.profileRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("profile_service_update_failed: %w", err)
	}

	service.logger.Info("user_profile_updated", slog.String("user_id", userID))

	return user, nil
}

/*
UploadAvatar stores a new avatar image and links it to the account.

Description: Streams the blob into the object store under a fresh
time-sortable key, then persists the resulting public URL.

Parameters:
  - context: context.Context
  - userID: string
  - filename: string (original upload name, used for the extension only)
  - blob: io.Reader

Returns:
  - string: Public avatar URL
  - error: Storage or persistence failures
*/
func (service *Service) UploadAvatar(context context.Context, userID, filename string, blob io.Reader) (string, error) {

	extension := strings.ToLower(path.Ext(filename))
	switch extension {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		return "", apperr.Unprocessable("Unsupported avatar image format")
	}

	objectPath := fmt.Sprintf("%s/%s%s", userID, uuid.New(), extension)
	storedPath, err := service.objectStorage.Upload(context, AvatarBucket, objectPath, blob)
	if err != nil {
		return "", fmt.Errorf("profile_service_avatar_upload_failed: %w", err)
	}

	avatarURL := service.objectStorage.PublicURL(AvatarBucket, storedPath)
	if err := service.profileRepository.SetAvatar(context, userID, avatarURL); err != nil {
		return "", fmt.Errorf("profile_service_avatar_link_failed: %w", err)
	}

	service.logger.Info("user_avatar_updated", slog.String("user_id", userID))

	return avatarURL, nil
}

// # Workspace Administration

/*
ListTeamMembers returns a page of the public roster of a team.

Parameters:
  - context: context.Context
  - teamID: string
  - limit: int
  - offset: int

Returns:
  - []*PublicProfile: Active members of the team
  - int: Total count for pagination
  - error: Retrieval failures
*/
func (service *Service) ListTeamMembers(context context.Context, teamID string, limit, offset int) ([]*PublicProfile, int, error) {
	users, total, err := service.profileRepository.ListByTeam(context, teamID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("profile_service_list_team_failed: %w", err)
	}

	members := make([]*PublicProfile, 0, len(users))
	for _, user := range users {
		members = append(members, AsPublic(user))
	}
	return members, total, nil
}

/*
ChangeRole replaces the role of a target account.

Description: Admin-only operation. An admin cannot demote themselves, which
guarantees the workspace always keeps at least one admin.

Parameters:
  - context: context.Context
  - actorID: string
  - targetID: string
  - newRole: string

Returns:
  - error: Validation, authorization, or storage failures
*/
func (service *Service) ChangeRole(context context.Context, actorID, targetID, newRole string) error {

	role := sec.ParseRole(newRole)
	if string(role) != newRole {
		return apperr.ValidationError("Unknown role: " + newRole)
	}

	if actorID == targetID && role != sec.RoleAdmin {
		return apperr.Forbidden("Admins cannot remove their own admin role")
	}

	if _, err := service.profileRepository.FindByID(context, targetID); err != nil {
		return err
	}

	if err := service.profileRepository.SetRole(context, targetID, role); err != nil {
		return fmt.Errorf("profile_service_change_role_failed: %w", err)
	}

	service.logger.Info("user_role_changed",
		slog.String("actor_id", actorID),
		slog.String("user_id", targetID),
		slog.String("role", string(role)),
	)

	return nil
}

/*
AssignTeam moves a target account to a team, or detaches it when teamID is empty.

Parameters:
  - context: context.Context
  - targetID: string
  - teamID: string

Returns:
  - error: Storage failures
*/
func (service *Service) AssignTeam(context context.Context, targetID, teamID string) error {

	if _, err := service.profileRepository.FindByID(context, targetID); err != nil {
		return err
	}

	if err := service.profileRepository.SetTeam(context, targetID, teamID); err != nil {
		return fmt.Errorf("profile_service_assign_team_failed: %w", err)
	}

	service.logger.Info("user_team_assigned",
		slog.String("user_id", targetID),
		slog.String("team_id", teamID),
	)

	return nil
}

/*
DeactivateAccount disables access for a target account.

Description: Flags the account as inactive and immediately terminates all
active security sessions to force a global sign-out.

Parameters:
  - context: context.Context
  - targetID: string

Returns:
  - error: Execution failures
*/
func (service *Service) DeactivateAccount(context context.Context, targetID string) error {

	if err := service.profileRepository.SetActive(context, targetID, false); err != nil {
		return fmt.Errorf("profile_service_deactivate_failed: %w", err)
	}

	// Force global revocation of sessions for the deactivated account
	_ = service.sessionRepository.RevokeAll(context, targetID)

	service.logger.Warn("user_account_deactivated", slog.String("user_id", targetID))

	return nil
}

// # Session Security

/*
ListSessions provides a list of all active device sessions for the user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []SessionInfo: List of active devices
  - error: Retrieval failures
*/
func (service *Service) ListSessions(context context.Context, userID string) ([]SessionInfo, error) {

	sessions, err := service.sessionRepository.FindActiveByUserID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("profile_service_list_sessions_failed: %w", err)
	}

	return sessions, nil
}

/*
RevokeSession terminates a specific user session by its ID.

Parameters:
  - context: context.Context
  - userID: string
  - sessionID: string

Returns:
  - error: Revocation failures
*/
func (service *Service) RevokeSession(context context.Context, userID, sessionID string) error {
	if err := service.sessionRepository.Revoke(context, userID, sessionID); err != nil {
		return fmt.Errorf("profile_service_revoke_session_failed: %w", err)
	}

	service.logger.Info("user_session_revoked",
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
	)

	return nil
}

/*
RevokeOtherSessions terminates all sessions except for the current active one.

Parameters:
  - context: context.Context
  - userID: string
  - currentSessionID: string

Returns:
  - error: Revocation failures
*/
func (service *Service) RevokeOtherSessions(context context.Context, userID, currentSessionID string) error {
	if err := service.sessionRepository.RevokeOthers(context, userID, currentSessionID); err != nil {
		return fmt.Errorf("profile_service_revoke_others_failed: %w", err)
	}

	service.logger.Info("user_other_sessions_revoked", slog.String("user_id", userID))

	return nil
}
