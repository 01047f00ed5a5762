// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package timesheet

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/billowria/teampulse/internal/platform/apperr"
	"github.com/billowria/teampulse/internal/platform/dberr"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const timesheetSelectColumns = `
	id, userid, teamid, weekstart, totalhours, status,
	COALESCE(decidedby::text, ''), submittedat, createdat`

func scanTimesheet(row pgx.Row) (*Timesheet, error) {
	var sheet Timesheet
	err := row.Scan(
		&sheet.ID,
		&sheet.UserID,
		&sheet.TeamID,
		&sheet.WeekStart,
		&sheet.TotalHours,
		&sheet.Status,
		&sheet.DecidedBy,
		&sheet.SubmittedAt,
		&sheet.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (repo *PostgresRepository) Create(ctx context.Context, sheet *Timesheet) error {
	query := `
		INSERT INTO team.timesheet
			(id, userid, teamid, weekstart, totalhours, status, submittedat, createdat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := repo.pool.Exec(ctx, query,
		sheet.ID,
		sheet.UserID,
		sheet.TeamID,
		sheet.WeekStart,
		sheet.TotalHours,
		sheet.Status,
		sheet.SubmittedAt,
		sheet.CreatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "postgres_timesheet_repo_create")
	}
	return nil
}

func (repo *PostgresRepository) FindByID(ctx context.Context, id string) (*Timesheet, error) {
	query := `SELECT ` + timesheetSelectColumns + ` FROM team.timesheet WHERE id = $1`

	sheet, err := scanTimesheet(repo.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("Timesheet")
		}
		return nil, dberr.Wrap(err, "postgres_timesheet_repo_find")
	}
	return sheet, nil
}

func (repo *PostgresRepository) FindByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) (*Timesheet, error) {
	query := `SELECT ` + timesheetSelectColumns + ` FROM team.timesheet WHERE userid = $1 AND weekstart = $2`

	sheet, err := scanTimesheet(repo.pool.QueryRow(ctx, query, userID, weekStart))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("Timesheet")
		}
		return nil, dberr.Wrap(err, "postgres_timesheet_repo_find")
	}
	return sheet, nil
}

func (repo *PostgresRepository) ListPendingByTeam(ctx context.Context, teamID string) ([]*Timesheet, error) {
	query := `
		SELECT ` + timesheetSelectColumns + `
		FROM team.timesheet
		WHERE teamid = $1 AND status = 'pending'
		ORDER BY weekstart ASC`

	return repo.list(ctx, query, teamID)
}

func (repo *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*Timesheet, error) {
	query := `
		SELECT ` + timesheetSelectColumns + `
		FROM team.timesheet
		WHERE userid = $1
		ORDER BY weekstart DESC`

	return repo.list(ctx, query, userID)
}

func (repo *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*Timesheet, error) {
	rows, err := repo.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_timesheet_repo_list")
	}
	defer rows.Close()

	var sheets []*Timesheet
	for rows.Next() {
		sheet, err := scanTimesheet(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "postgres_timesheet_repo_list")
		}
		sheets = append(sheets, sheet)
	}
	return sheets, rows.Err()
}

// SetDecision flips a pending timesheet to its final status. The status
// guard in the WHERE clause makes concurrent decisions race-safe.
func (repo *PostgresRepository) SetDecision(ctx context.Context, id, deciderID, status string) error {
	query := `
		UPDATE team.timesheet
		SET status = $2, decidedby = $3
		WHERE id = $1 AND status = 'pending'`

	tag, err := repo.pool.Exec(ctx, query, id, status, deciderID)
	if err != nil {
		return dberr.Wrap(err, "postgres_timesheet_repo_decide")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("Timesheet was already decided")
	}
	return nil
}
