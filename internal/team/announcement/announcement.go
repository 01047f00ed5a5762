// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

/*
Package announcement implements team-scoped announcements with durable
per-user read receipts.

An announcement is visible to its team until its expiry passes. Whether a
given user has read it is tracked in a separate receipt table: row presence
with isread=true is the durable receipt, absence means unread. The
notification feed is built on exactly this distinction.
*/
package announcement

import (
	"context"
	"time"
)

// # Domain Entities

// Priority levels for an announcement.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Announcement is a broadcast message posted to a team.
type Announcement struct {
	ID        string     `json:"id"`
	TeamID    string     `json:"team_id"`
	AuthorID  string     `json:"author_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Priority  string     `json:"priority"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	// IsRead reflects the requesting user's receipt in per-user queries.
	IsRead bool `json:"is_read"`
}

const (
	FieldTitle    = "title"
	FieldMessage  = "message"
	FieldPriority = "priority"
	FieldExpires  = "expires_at"
)

// # Repository Contract

type Repository interface {
	/*
		Create persists a new announcement.

		Parameters:
		  - context: context.Context
		  - announcement: *Announcement

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, announcement *Announcement) error

	/*
		FindByID retrieves one announcement without receipt data.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Announcement: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*Announcement, error)

	/*
		ListActiveForUser returns the team's unexpired announcements with the
		user's read receipt joined in, newest first.

		Parameters:
		  - context: context.Context
		  - teamID: string
		  - userID: string

		Returns:
		  - []*Announcement: Active feed with IsRead populated
		  - error: Retrieval failures
	*/
	ListActiveForUser(context context.Context, teamID, userID string) ([]*Announcement, error)

	/*
		UpsertReadReceipt durably marks an announcement read for a user.
		Idempotent: repeating the call leaves the receipt unchanged.

		Parameters:
		  - context: context.Context
		  - announcementID: string
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	UpsertReadReceipt(context context.Context, announcementID, userID string) error

	/*
		DeleteExpired removes announcements whose expiry is older than the cutoff.

		Parameters:
		  - context: context.Context
		  - cutoff: time.Time

		Returns:
		  - int64: Rows removed
		  - error: Cleanup failures
	*/
	DeleteExpired(context context.Context, cutoff time.Time) (int64, error)
}
