// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

/*
Package profile handles user profile management, avatars, and security settings.

It provides functionalities for users to view and update their private identity
data, upload an avatar, and manage their active device sessions, plus the
administrative surface for role and team assignment.

# Architecture

  - Entities: SessionInfo (DTO); the User entity comes from the auth package.
  - Storage: Avatars go through the gateway object store, metadata through Postgres.
  - Security: Provides session transparency and revocation mechanisms.
*/
package profile

import (
	"context"
	"time"

	"github.com/billowria/teampulse/internal/platform/sec"
	"github.com/billowria/teampulse/internal/users/auth"
)

// # Domain Entities

// PublicProfile is the externally visible subset of a user account.
// It omits email and security metadata for transport.
type PublicProfile struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	DisplayName string       `json:"display_name"`
	AvatarURL   string       `json:"avatar_url,omitempty"`
	Role        sec.UserRole `json:"role"`
	TeamID      string       `json:"team_id,omitempty"`
}

// SessionInfo provides a safety-mapped view of an active user session.
// It omits sensitive token hashes for transport.
type SessionInfo struct {
	ID         string    `json:"id"`
	DeviceName string    `json:"device_name"` // e.g. "Chrome on Windows"
	IPAddress  string    `json:"ip_address"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsCurrent  bool      `json:"is_current"` // True if this session belongs to the current request
}

// AsPublic maps a full user entity to its public projection.
func AsPublic(user *auth.User) *PublicProfile {
	return &PublicProfile{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Role:        user.Role,
		TeamID:      user.TeamID,
	}
}

// # Repository Contracts

// ProfileRepository defines the persistence contract for user accounts.
type ProfileRepository interface {
	/*
		FindByID retrieves a user record by their unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		Update modifies the mutable profile fields of an existing user.

		Parameters:
		  - context: context.Context
		  - user: *auth.User (Hydrated entity with changes)

		Returns:
		  - error: Storage or constraint failures
	*/
	Update(context context.Context, user *auth.User) error

	/*
		ListByTeam returns a page of active accounts assigned to a team.

		Parameters:
		  - context: context.Context
		  - teamID: string
		  - limit: int
		  - offset: int

		Returns:
		  - []*auth.User: Team roster page
		  - int: Total count for pagination
		  - error: Retrieval failures
	*/
	ListByTeam(context context.Context, teamID string, limit, offset int) ([]*auth.User, int, error)

	/*
		SetAvatar updates only the avatar URL of an account.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - avatarURL: string

		Returns:
		  - error: Execution failures
	*/
	SetAvatar(context context.Context, userID, avatarURL string) error

	/*
		SetRole replaces the role of an account.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - role: sec.UserRole

		Returns:
		  - error: Execution failures
	*/
	SetRole(context context.Context, userID string, role sec.UserRole) error

	/*
		SetTeam reassigns an account to a team (empty teamID detaches).

		Parameters:
		  - context: context.Context
		  - userID: string
		  - teamID: string

		Returns:
		  - error: Execution failures
	*/
	SetTeam(context context.Context, userID, teamID string) error

	/*
		SetActive toggles account access without removing the row.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - active: bool

		Returns:
		  - error: Execution failures
	*/
	SetActive(context context.Context, userID string, active bool) error
}

// SessionRepository defines the visibility and revocation contract for user sessions.
type SessionRepository interface {
	/*
		FindActiveByUserID lists all valid, non-expired sessions for a user.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []SessionInfo: List of active devices
		  - error: Retrieval errors
	*/
	FindActiveByUserID(context context.Context, userID string) ([]SessionInfo, error)

	/*
		Revoke marks a specific session as revoked.

		Parameters:
		  - context: context.Context
		  - userID: string (Security constraint: owner validation)
		  - sessionID: string

		Returns:
		  - error: Revocation failures
	*/
	Revoke(context context.Context, userID, sessionID string) error

	/*
		RevokeOthers revokes all active sessions except for a target session.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - currentSessionID: string (The whitelist target)

		Returns:
		  - error: Revocation failures
	*/
	RevokeOthers(context context.Context, userID, currentSessionID string) error

	/*
		RevokeAll terminates every session for a user.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Revocation failures
	*/
	RevokeAll(context context.Context, userID string) error
}
