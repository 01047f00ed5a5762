// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package leave

import (
	"context"
	"log/slog"
	"time"

	"github.com/billowria/teampulse/internal/gateway"
	"github.com/billowria/teampulse/internal/platform/apperr"
	"github.com/billowria/teampulse/internal/platform/database/schema"
	"github.com/billowria/teampulse/internal/platform/validate"
	"github.com/billowria/teampulse/pkg/uuid"
)

// # Service Layer

// Service orchestrates the leave-request workflow.
type Service struct {
	repo     Repository
	realtime gateway.Realtime
	notifier Notifier
	logger   *slog.Logger
}

// NewService constructs a leave [Service]. The notifier may be nil when no
// requester-facing push is wired.
func NewService(repo Repository, realtime gateway.Realtime, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		realtime: realtime,
		notifier: notifier,
		logger:   logger,
	}
}

// parseDate parses an ISO calendar date without a time component.
func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

// SubmitInput holds the data required to apply for leave.
type SubmitInput struct {
	RequesterID string
	TeamID      string
	StartDate   string // ISO date (2026-09-14)
	EndDate     string
	Reason      string
}

/*
Submit validates and persists a new leave request, then publishes an insert
event so managers' notification feeds refresh.

Parameters:
  - context: context.Context
  - input: SubmitInput

Returns:
  - *Request: Created entity in pending state
  - error: Validation or persistence failures
*/
func (service *Service) Submit(context context.Context, input SubmitInput) (*Request, error) {

	validator := &validate.Validator{}
	validator.Required(FieldStartDate, input.StartDate).
		Required(FieldEndDate, input.EndDate).
		MaxLen(FieldReason, input.Reason, 1000)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	start, err := parseDate(input.StartDate)
	if err != nil {
		return nil, apperr.ValidationError("start_date must be an ISO date (YYYY-MM-DD)")
	}

	end, err := parseDate(input.EndDate)
	if err != nil {
		return nil, apperr.ValidationError("end_date must be an ISO date (YYYY-MM-DD)")
	}

	if end.Before(start) {
		return nil, apperr.ValidationError("end_date must not precede start_date")
	}

	request := &Request{
		ID:          uuid.New(),
		RequesterID: input.RequesterID,
		TeamID:      input.TeamID,
		StartDate:   start,
		EndDate:     end,
		Reason:      input.Reason,
		Status:      StatusPending,
	}

	if err := service.repo.Create(context, request); err != nil {
		return nil, err
	}

	// Managers' feeds pick this up via the realtime bus. Publish failure
	// never blocks the write path.
	err = service.realtime.Publish(context, schema.LeaveRequests.Name, gateway.EventInsert, gateway.Row{
		"id":          request.ID,
		"teamid":      request.TeamID,
		"requesterid": request.RequesterID,
	})
	if err != nil {
		service.logger.Warn("leave_realtime_publish_failed",
			slog.String("request_id", request.ID),
			slog.Any("error", err),
		)
	}

	service.logger.Info("leave_request_submitted",
		slog.String("request_id", request.ID),
		slog.String("requester_id", request.RequesterID),
		slog.String("team_id", request.TeamID),
	)

	return request, nil
}

/*
ListPending returns the team's undecided requests for the manager queue.

Parameters:
  - context: context.Context
  - teamID: string

Returns:
  - []*Request: Pending queue, newest first
  - error: Retrieval failures
*/
func (service *Service) ListPending(context context.Context, teamID string) ([]*Request, error) {
	return service.repo.ListPendingByTeam(context, teamID)
}

/*
ListMine returns the requester's own submission history.

Parameters:
  - context: context.Context
  - requesterID: string

Returns:
  - []*Request: Submission history, newest first
  - error: Retrieval failures
*/
func (service *Service) ListMine(context context.Context, requesterID string) ([]*Request, error) {
	return service.repo.ListByRequester(context, requesterID)
}

/*
Decide transitions a pending request to approved or rejected.

Description: Validates the decision verb, records who decided and why, then
publishes an update event and fires the requester notifier hook.

Parameters:
  - context: context.Context
  - requestID: string
  - deciderID: string
  - decision: string (approved|rejected)
  - note: string

Returns:
  - *Request: Updated entity
  - error: Validation, conflict, or persistence failures
*/
func (service *Service) Decide(context context.Context, requestID, deciderID, decision, note string) (*Request, error) {

	validator := &validate.Validator{}
	validator.OneOf(FieldDecision, decision, StatusApproved, StatusRejected).
		MaxLen("decision_note", note, 1000)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	request, err := service.repo.FindByID(context, requestID)
	if err != nil {
		return nil, err
	}

	if request.Status != StatusPending {
		return nil, apperr.Conflict("Leave request was already decided")
	}

	if err := service.repo.SetDecision(context, requestID, decision, deciderID, note); err != nil {
		return nil, err
	}

	request.Status = decision
	request.DecidedBy = deciderID
	request.DecisionNote = note

	err = service.realtime.Publish(context, schema.LeaveRequests.Name, gateway.EventUpdate, gateway.Row{
		"id":     request.ID,
		"status": request.Status,
	})
	if err != nil {
		service.logger.Warn("leave_realtime_publish_failed",
			slog.String("request_id", request.ID),
			slog.Any("error", err),
		)
	}

	if service.notifier != nil {
		service.notifier.LeaveDecided(context, request)
	}

	service.logger.Info("leave_request_decided",
		slog.String("request_id", request.ID),
		slog.String("decider_id", deciderID),
		slog.String("decision", decision),
	)

	return request, nil
}
