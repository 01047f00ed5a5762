// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

// Package team manages the workspace team records all collaboration
// features hang off: announcements, leave requests, and timesheets are
// always scoped to a team.
package team

import "time"

// Team is a named group of accounts inside the workspace.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const FieldName = "name"
