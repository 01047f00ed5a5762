// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package timesheet

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/billowria/teampulse/internal/gateway"
	"github.com/billowria/teampulse/internal/platform/apperr"
	"github.com/billowria/teampulse/internal/platform/database/schema"
	"github.com/billowria/teampulse/internal/platform/validate"
)

// maxWeeklyHours caps a submission at the number of hours in a week.
const maxWeeklyHours = 168

type Service struct {
	repo     Repository
	realtime gateway.Realtime
	logger   *slog.Logger
}

func NewService(repo Repository, realtime gateway.Realtime, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		realtime: realtime,
		logger:   logger,
	}
}

type SubmitInput struct {
	UserID     string
	TeamID     string
	WeekStart  string
	TotalHours float64
}

/*
Submit records a user's hours for one work week in pending state.

Parameters:
  - context: Request-scoped context
  - input: Submitter, team and the week being reported

Returns:
  - *Timesheet: Created entity
  - error: ErrValidation on malformed input, ErrConflict when the week
    was already submitted
*/
func (service *Service) Submit(context context.Context, input SubmitInput) (*Timesheet, error) {
	validator := &validate.Validator{}
	validator.Required(FieldWeekStart, input.WeekStart).
		Custom(FieldTotalHours, input.TotalHours <= 0 || input.TotalHours > maxWeeklyHours,
			"Total hours must be between 0 and 168")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	weekStart, err := time.Parse("2006-01-02", input.WeekStart)
	if err != nil {
		return nil, validate.RequiredError(FieldWeekStart, "Week start must be an ISO date (YYYY-MM-DD)")
	}
	if weekStart.Weekday() != time.Monday {
		return nil, validate.RequiredError(FieldWeekStart, "Week start must be a Monday")
	}

	if existing, err := service.repo.FindByUserAndWeek(context, input.UserID, weekStart); err == nil && existing != nil {
		return nil, apperr.Conflict("A timesheet for this week was already submitted")
	} else if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	sheet := &Timesheet{
		ID:          uuid.New().String(),
		UserID:      input.UserID,
		TeamID:      input.TeamID,
		WeekStart:   weekStart,
		TotalHours:  input.TotalHours,
		Status:      StatusPending,
		SubmittedAt: now,
		CreatedAt:   now,
	}

	if err := service.repo.Create(context, sheet); err != nil {
		return nil, err
	}

	if err := service.realtime.Publish(context, schema.Timesheets.Name, gateway.EventInsert, gateway.Row{
		"id":     sheet.ID,
		"teamid": sheet.TeamID,
		"userid": sheet.UserID,
	}); err != nil {
		service.logger.Warn("timesheet submit publish failed", "timesheet_id", sheet.ID, "error", err)
	}

	return sheet, nil
}

/*
ListPending returns a team's undecided timesheets, oldest week first.

Parameters:
  - context: Request-scoped context
  - teamID: Team whose queue is requested

Returns:
  - []*Timesheet: Pending submissions
  - error: Storage failure
*/
func (service *Service) ListPending(context context.Context, teamID string) ([]*Timesheet, error) {
	return service.repo.ListPendingByTeam(context, teamID)
}

/*
ListMine returns the caller's own submission history, newest week first.

Parameters:
  - context: Request-scoped context
  - userID: Submitter

Returns:
  - []*Timesheet: All submissions by the user
  - error: Storage failure
*/
func (service *Service) ListMine(context context.Context, userID string) ([]*Timesheet, error) {
	return service.repo.ListByUser(context, userID)
}

/*
Decide approves or rejects a pending timesheet.

Parameters:
  - context: Request-scoped context
  - sheetID: Timesheet being decided
  - deciderID: Manager recording the decision
  - decision: "approved" or "rejected"

Returns:
  - *Timesheet: Entity after the decision
  - error: ErrNotFound when absent, ErrConflict when already decided
*/
func (service *Service) Decide(context context.Context, sheetID, deciderID, decision string) (*Timesheet, error) {
	validator := &validate.Validator{}
	validator.OneOf(FieldDecision, decision, StatusApproved, StatusRejected)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	sheet, err := service.repo.FindByID(context, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet.Status != StatusPending {
		return nil, apperr.Conflict("Timesheet was already decided")
	}

	if err := service.repo.SetDecision(context, sheetID, deciderID, decision); err != nil {
		return nil, err
	}

	sheet.Status = decision
	sheet.DecidedBy = deciderID

	if err := service.realtime.Publish(context, schema.Timesheets.Name, gateway.EventUpdate, gateway.Row{
		"id":     sheet.ID,
		"status": sheet.Status,
	}); err != nil {
		service.logger.Warn("timesheet decision publish failed", "timesheet_id", sheet.ID, "error", err)
	}

	return sheet, nil
}
