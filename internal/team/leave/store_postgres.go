// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package leave

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

const leaveSelectColumns = `
	id, requesterid, teamid, startdate, enddate, reason, status,
	COALESCE(decidedby::text, ''), COALESCE(decisionnote, ''), createdat, updatedat`

// scanRequest hydrates a Request from a row produced with leaveSelectColumns.
func scanRequest(row pgx.Row) (*Request, error) {
	request := &Request{}
	err := row.Scan(
		&request.ID,
		&request.RequesterID,
		&request.TeamID,
		&request.StartDate,
		&request.EndDate,
		&request.Reason,
		&request.Status,
		&request.DecidedBy,
		&request.DecisionNote,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return request, nil
}

/*
Create persists a new leave request row.

Parameters:
  - context: context.Context
  - request: *Request

Returns:
  - error: Execution failures
*/
func (repository *PostgresRepository) Create(context context.Context, request *Request) error {
	const query = `
		INSERT INTO team.leaverequest (
			id, requesterid, teamid, startdate, enddate, reason, status, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	request.CreatedAt = now
	request.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		request.ID,
		request.RequesterID,
		request.TeamID,
		request.StartDate,
		request.EndDate,
		request.Reason,
		request.Status,
		request.CreatedAt,
		request.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_leave_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves one leave request.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Request: Hydrated entity
  - error: apperr.NotFound or execution failures
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Request, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM team.leaverequest
		WHERE id = $1`, leaveSelectColumns)

	request, err := scanRequest(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Leave request")
		}
		return nil, fmt.Errorf("postgres_leave_repo_find_failed: %w", err)
	}

	return request, nil
}

/*
ListPendingByTeam returns the team's undecided requests, newest first.

Parameters:
  - context: context.Context
  - teamID: string

Returns:
  - []*Request: Pending queue
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListPendingByTeam(context context.Context, teamID string) ([]*Request, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM team.leaverequest
		WHERE teamid = $1 AND status = 'pending'
		ORDER BY createdat DESC`, leaveSelectColumns)

	return repository.list(context, query, teamID)
}

/*
ListByRequester returns every request a user has submitted, newest first.

Parameters:
  - context: context.Context
  - requesterID: string

Returns:
  - []*Request: Submission history
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListByRequester(context context.Context, requesterID string) ([]*Request, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM team.leaverequest
		WHERE requesterid = $1
		ORDER BY createdat DESC`, leaveSelectColumns)

	return repository.list(context, query, requesterID)
}

func (repository *PostgresRepository) list(context context.Context, query, arg string) ([]*Request, error) {
	rows, err := repository.pool.Query(context, query, arg)
	if err != nil {
		return nil, fmt.Errorf("postgres_leave_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var requests []*Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_leave_repo_scan_failed: %w", err)
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_leave_repo_rows_failed: %w", err)
	}

	return requests, nil
}

/*
SetDecision transitions a pending request to approved or rejected.

Description: The status guard in the WHERE clause makes concurrent decisions
race-safe; the loser observes zero affected rows and gets a Conflict.

Parameters:
  - context: context.Context
  - id: string
  - status: string
  - decidedBy: string
  - note: string

Returns:
  - error: apperr.Conflict if the request was already decided
*/
func (repository *PostgresRepository) SetDecision(context context.Context, id, status, decidedBy, note string) error {
	const query = `
		UPDATE team.leaverequest
		SET status = $2, decidedby = $3, decisionnote = NULLIF($4, ''), updatedat = $5
		WHERE id = $1 AND status = 'pending'`

	tag, err := repository.pool.Exec(context, query, id, status, decidedBy, note, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_leave_repo_decide_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.Conflict("Leave request was already decided")
	}

	return nil
}
