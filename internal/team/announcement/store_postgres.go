// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package announcement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/billowria/teampulse/internal/platform/apperr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Create persists a new announcement row.

Parameters:
  - context: context.Context
  - announcement: *Announcement

Returns:
  - error: Execution failures
*/
func (repository *PostgresRepository) Create(context context.Context, announcement *Announcement) error {
	const query = `
		INSERT INTO team.announcement (id, teamid, authorid, title, message, priority, expiresat, createdat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		announcement.ID,
		announcement.TeamID,
		announcement.AuthorID,
		announcement.Title,
		announcement.Message,
		announcement.Priority,
		announcement.ExpiresAt,
		announcement.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_announcement_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves one announcement without receipt data.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Announcement: Hydrated entity
  - error: apperr.NotFound or execution failures
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Announcement, error) {
	const query = `
		SELECT id, teamid, authorid, title, message, priority, expiresat, createdat
		FROM team.announcement
		WHERE id = $1`

	announcement := &Announcement{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&announcement.ID,
		&announcement.TeamID,
		&announcement.AuthorID,
		&announcement.Title,
		&announcement.Message,
		&announcement.Priority,
		&announcement.ExpiresAt,
		&announcement.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Announcement")
		}
		return nil, fmt.Errorf("postgres_announcement_repo_find_failed: %w", err)
	}

	return announcement, nil
}

/*
ListActiveForUser returns unexpired team announcements with the requesting
user's read receipt joined in, newest first.

Description: A LEFT JOIN against the receipt table makes the absence of a
receipt row read as unread without a second query.

Parameters:
  - context: context.Context
  - teamID: string
  - userID: string

Returns:
  - []*Announcement: Active feed with IsRead populated
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListActiveForUser(context context.Context, teamID, userID string) ([]*Announcement, error) {
	const query = `
		SELECT a.id, a.teamid, a.authorid, a.title, a.message, a.priority, a.expiresat, a.createdat,
		       COALESCE(r.isread, FALSE)
		FROM team.announcement a
		LEFT JOIN team.announcementread r
		  ON r.announcementid = a.id AND r.userid = $2
		WHERE a.teamid = $1 AND (a.expiresat IS NULL OR a.expiresat > NOW())
		ORDER BY a.createdat DESC`

	rows, err := repository.pool.Query(context, query, teamID, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_announcement_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var announcements []*Announcement
	for rows.Next() {
		announcement := &Announcement{}
		err := rows.Scan(
			&announcement.ID,
			&announcement.TeamID,
			&announcement.AuthorID,
			&announcement.Title,
			&announcement.Message,
			&announcement.Priority,
			&announcement.ExpiresAt,
			&announcement.CreatedAt,
			&announcement.IsRead,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres_announcement_repo_scan_failed: %w", err)
		}
		announcements = append(announcements, announcement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_announcement_repo_rows_failed: %w", err)
	}

	return announcements, nil
}

/*
UpsertReadReceipt durably marks an announcement read for a user.

Description: ON CONFLICT DO NOTHING keeps the first receipt's timestamp, so
repeated marks are true no-ops.

Parameters:
  - context: context.Context
  - announcementID: string
  - userID: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresRepository) UpsertReadReceipt(context context.Context, announcementID, userID string) error {
	const query = `
		INSERT INTO team.announcementread (announcementid, userid, isread, readat)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (announcementid, userid) DO NOTHING`

	_, err := repository.pool.Exec(context, query, announcementID, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_announcement_repo_receipt_failed: %w", err)
	}

	return nil
}

/*
DeleteExpired removes announcements whose expiry is older than the cutoff.

Parameters:
  - context: context.Context
  - cutoff: time.Time

Returns:
  - int64: Rows removed
  - error: Cleanup failures
*/
func (repository *PostgresRepository) DeleteExpired(context context.Context, cutoff time.Time) (int64, error) {
	const query = "DELETE FROM team.announcement WHERE expiresat IS NOT NULL AND expiresat <= $1"

	tag, err := repository.pool.Exec(context, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres_announcement_repo_purge_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}
