// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

/*
Package leave implements the leave-request workflow: members submit date
ranges, managers approve or reject them with an optional decision note.

Pending requests surface in managers' notification feeds; decisions are
pushed back to the requester through the notifier hook and the realtime bus.
*/
package leave

import (
	"context"
	"time"
)

// # Domain Entities

// Request lifecycle states.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request is a single leave application.
type Request struct {
	ID           string    `json:"id"`
	RequesterID  string    `json:"requester_id"`
	TeamID       string    `json:"team_id"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Reason       string    `json:"reason"`
	Status       string    `json:"status"`
	DecidedBy    string    `json:"decided_by,omitempty"`
	DecisionNote string    `json:"decision_note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldReason    = "reason"
	FieldDecision  = "decision"
)

// # Repository Contract

type Repository interface {
	/*
		Create persists a new leave request.

		Parameters:
		  - context: context.Context
		  - request: *Request

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, request *Request) error

	/*
		FindByID retrieves one leave request.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Request: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*Request, error)

	/*
		ListPendingByTeam returns the team's undecided requests, newest first.

		Parameters:
		  - context: context.Context
		  - teamID: string

		Returns:
		  - []*Request: Pending queue
		  - error: Retrieval failures
	*/
	ListPendingByTeam(context context.Context, teamID string) ([]*Request, error)

	/*
		ListByRequester returns every request a user has submitted, newest first.

		Parameters:
		  - context: context.Context
		  - requesterID: string

		Returns:
		  - []*Request: Submission history
		  - error: Retrieval failures
	*/
	ListByRequester(context context.Context, requesterID string) ([]*Request, error)

	/*
		SetDecision transitions a pending request to approved or rejected.

		Parameters:
		  - context: context.Context
		  - id: string
		  - status: string
		  - decidedBy: string
		  - note: string

		Returns:
		  - error: apperr.Conflict if the request was already decided
	*/
	SetDecision(context context.Context, id, status, decidedBy, note string) error
}

// Notifier receives the requester-facing side of a decision. The state core
// plugs its notification refresh in here.
type Notifier interface {
	LeaveDecided(context context.Context, request *Request)
}
