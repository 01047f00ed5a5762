// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package timesheet

import (
	"context"
	"time"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Timesheet is one user's submitted hours for a single work week.
type Timesheet struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	TeamID      string    `json:"team_id"`
	WeekStart   time.Time `json:"week_start"`
	TotalHours  float64   `json:"total_hours"`
	Status      string    `json:"status"`
	DecidedBy   string    `json:"decided_by,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	FieldWeekStart  = "week_start"
	FieldTotalHours = "total_hours"
	FieldDecision   = "decision"
)

type Repository interface {
	Create(ctx context.Context, sheet *Timesheet) error
	FindByID(ctx context.Context, id string) (*Timesheet, error)
	FindByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) (*Timesheet, error)
	ListPendingByTeam(ctx context.Context, teamID string) ([]*Timesheet, error)
	ListByUser(ctx context.Context, userID string) ([]*Timesheet, error)
	SetDecision(ctx context.Context, id, deciderID, status string) error
}
