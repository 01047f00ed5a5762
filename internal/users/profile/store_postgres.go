// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

/*
PostgreSQL storage layer for user profile metadata.

# Schema Table Mapping
  - users.account: Master identity and profile data.
  - users.session: Active device sessions and security metadata.
*/
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/billowria/teampulse/internal/platform/apperr"
	"github.com/billowria/teampulse/internal/platform/sec"
	"github.com/billowria/teampulse/internal/users/auth"
)

// # Repository Implementations

// PostgresProfileRepository implements [ProfileRepository] using pgx.
type PostgresProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new Postgres implementation for profile management.
func NewProfileRepository(pool *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// PostgresSessionRepository implements [SessionRepository] using pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new Postgres implementation for session auditing.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

const accountSelectColumns = `
	id, username, email, passwordhash, displayname,
	COALESCE(avatarurl, ''), role, COALESCE(teamid::text, ''), isactive,
	createdat, updatedat`

// scanAccount hydrates a user from a row produced with accountSelectColumns.
func scanAccount(row pgx.Row) (*auth.User, error) {
	user := &auth.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.AvatarURL,
		&user.Role,
		&user.TeamID,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// # ProfileRepository Methods

/*
FindByID retrieves a user record from the users.account table.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *auth.User: Hydrated identity entity
  - error: apperr.NotFound or database execution failure
*/
func (repository *PostgresProfileRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users.account
		WHERE id = $1 AND deletedat IS NULL`, accountSelectColumns)

	user, err := scanAccount(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_profile_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
Update modifies the mutable profile metadata of a user.

Description: Syncs the Username and DisplayName fields while refreshing the
updatedat timestamp.

Parameters:
  - context: context.Context
  - user: *auth.User

Returns:
  - error: Constraint or execution failures
*/
func (repository *PostgresProfileRepository) Update(context context.Context, user *auth.User) error {
	const query = `
		UPDATE users.account
		SET username = $2, displayname = $3, updatedat = $4
		WHERE id = $1 AND deletedat IS NULL`

	user.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.DisplayName,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_profile_repo_update_failed: %w", err)
	}

	return nil
}

/*
ListByTeam returns a page of active accounts assigned to a team, ordered by name.

Parameters:
  - context: context.Context
  - teamID: string
  - limit: int
  - offset: int

Returns:
  - []*auth.User: Hydrated roster page
  - int: Total count for pagination
  - error: Retrieval failures
*/
func (repository *PostgresProfileRepository) ListByTeam(context context.Context, teamID string, limit, offset int) ([]*auth.User, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM users.account
		WHERE teamid = $1 AND isactive = TRUE AND deletedat IS NULL`

	var total int
	if err := repository.pool.QueryRow(context, countQuery, teamID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_profile_repo_count_team_failed: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users.account
		WHERE teamid = $1 AND isactive = TRUE AND deletedat IS NULL
		ORDER BY displayname ASC
		LIMIT $2 OFFSET $3`, accountSelectColumns)

	rows, err := repository.pool.Query(context, query, teamID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_profile_repo_list_team_failed: %w", err)
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		user, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_profile_repo_scan_failed: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_profile_repo_rows_failed: %w", err)
	}

	return users, total, nil
}

/*
SetAvatar updates only the avatar URL for an account.

Parameters:
  - context: context.Context
  - userID: string
  - avatarURL: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresProfileRepository) SetAvatar(context context.Context, userID, avatarURL string) error {
	const query = `
		UPDATE users.account
		SET avatarurl = NULLIF($2, ''), updatedat = $3
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, userID, avatarURL, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_profile_repo_set_avatar_failed: %w", err)
	}

	return nil
}

/*
SetRole replaces the role of an account.

Parameters:
  - context: context.Context
  - userID: string
  - role: sec.UserRole

Returns:
  - error: Execution failures
*/
func (repository *PostgresProfileRepository) SetRole(context context.Context, userID string, role sec.UserRole) error {
	const query = `
		UPDATE users.account
		SET role = $2, updatedat = $3
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, userID, role, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_profile_repo_set_role_failed: %w", err)
	}

	return nil
}

/*
SetTeam reassigns an account to a team (empty teamID detaches).

Parameters:
  - context: context.Context
  - userID: string
  - teamID: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresProfileRepository) SetTeam(context context.Context, userID, teamID string) error {
	const query = `
		UPDATE users.account
		SET teamid = NULLIF($2, '')::uuid, updatedat = $3
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, userID, teamID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_profile_repo_set_team_failed: %w", err)
	}

	return nil
}

/*
SetActive toggles account access without removing the row.

Parameters:
  - context: context.Context
  - userID: string
  - active: bool

Returns:
  - error: Execution failures
*/
func (repository *PostgresProfileRepository) SetActive(context context.Context, userID string, active bool) error {
	const query = `
		UPDATE users.account
		SET isactive = $2, updatedat = $3
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, userID, active, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_profile_repo_set_active_failed: %w", err)
	}

	return nil
}

// # SessionRepository Methods

/*
FindActiveByUserID lists all valid, non-expired sessions for a user.

Description: Maps raw session rows into transport-safe [SessionInfo] views,
deriving a device name from the stored user agent.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []SessionInfo: Active device list, newest first
  - error: Retrieval failures
*/
func (repository *PostgresSessionRepository) FindActiveByUserID(context context.Context, userID string) ([]SessionInfo, error) {
	const query = `
		SELECT id, useragent, ipaddress, createdat, expiresat
		FROM users.session
		WHERE userid = $1 AND isrevoked = FALSE AND expiresat > NOW()
		ORDER BY createdat DESC`

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.ID, &info.DeviceName, &info.IPAddress, &info.CreatedAt, &info.ExpiresAt); err != nil {
			return nil, fmt.Errorf("postgres_session_repo_scan_failed: %w", err)
		}
		sessions = append(sessions, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_session_repo_rows_failed: %w", err)
	}

	return sessions, nil
}

/*
Revoke marks a specific session as revoked, scoped to its owner.

Parameters:
  - context: context.Context
  - userID: string
  - sessionID: string

Returns:
  - error: apperr.NotFound if the session does not belong to the user
*/
func (repository *PostgresSessionRepository) Revoke(context context.Context, userID, sessionID string) error {
	const query = "UPDATE users.session SET isrevoked = TRUE WHERE id = $1 AND userid = $2"

	tag, err := repository.pool.Exec(context, query, sessionID, userID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Session")
	}

	return nil
}

/*
RevokeOthers revokes all active sessions except for a target session.

Parameters:
  - context: context.Context
  - userID: string
  - currentSessionID: string

Returns:
  - error: Revocation failures
*/
func (repository *PostgresSessionRepository) RevokeOthers(context context.Context, userID, currentSessionID string) error {
	const query = "UPDATE users.session SET isrevoked = TRUE WHERE userid = $1 AND id != $2 AND isrevoked = FALSE"

	_, err := repository.pool.Exec(context, query, userID, currentSessionID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_others_failed: %w", err)
	}

	return nil
}

/*
RevokeAll terminates every session for a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Revocation failures
*/
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, userID string) error {
	const query = "UPDATE users.session SET isrevoked = TRUE WHERE userid = $1 AND isrevoked = FALSE"

	_, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_all_failed: %w", err)
	}

	return nil
}
