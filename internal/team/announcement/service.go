// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package announcement

import (
	"context"
	"log/slog"
	"time"

	"github.com/billowria/teampulse/internal/gateway"
	"github.com/billowria/teampulse/internal/platform/database/schema"
	"github.com/billowria/teampulse/internal/platform/validate"
	"github.com/billowria/teampulse/pkg/uuid"
)

// # Service Layer

// Service orchestrates announcement lifecycle and read-receipt tracking.
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

// CreateInput holds the data required to post an announcement.
type CreateInput struct {
	TeamID    string
	AuthorID  string
	Title     string
	Message   string
	Priority  string
	ExpiresAt *time.Time
}

/*
Create validates and persists a new announcement, then publishes an insert
event on the realtime bus so connected clients refresh their feeds.

Description: Managerial access is enforced at the transport layer; this
method owns content validation and the realtime side effect.

Parameters:
  - context: context.Context
  - input: CreateInput

Returns:
  - *Announcement: Created entity
  - error: Validation or persistence failures
*/
func (service *Service) Create(context context.Context, input CreateInput) (*Announcement, error) {

	if input.Priority == "" {
		input.Priority = PriorityNormal
	}

	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).
		MaxLen(FieldTitle, input.Title, 200).
		Required(FieldMessage, input.Message).
		MaxLen(FieldMessage, input.Message, 5000).
		OneOf(FieldPriority, input.Priority, PriorityNormal, PriorityHigh, PriorityUrgent)

	if input.ExpiresAt != nil {
		validator.Future(FieldExpires, *input.ExpiresAt)
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}

	announcement := &Announcement{
		ID:        uuid.New(),
		TeamID:    input.TeamID,
		AuthorID:  input.AuthorID,
		Title:     input.Title,
		Message:   input.Message,
		Priority:  input.Priority,
		ExpiresAt: input.ExpiresAt,
	}

	if err := service.repo.Create(context, announcement); err != nil {
		return nil, err
	}

	// Notify connected clients. Publish failure never blocks the write path.
	err := service.realtime.Publish(context, schema.Announcements.Name, gateway.EventInsert, gateway.Row{
		"id":     announcement.ID,
		"teamid": announcement.TeamID,
		"title":  announcement.Title,
	})
	if err != nil {
		service.logger.Warn("announcement_realtime_publish_failed",
			slog.String("announcement_id", announcement.ID),
			slog.Any("error", err),
		)
	}

	service.logger.Info("announcement_created",
		slog.String("announcement_id", announcement.ID),
		slog.String("team_id", announcement.TeamID),
		slog.String("author_id", announcement.AuthorID),
	)

	return announcement, nil
}

/*
ListActive returns the team's unexpired announcements for one user, with
read receipts joined in, newest first.

Parameters:
  - context: context.Context
  - teamID: string
  - userID: string

Returns:
  - []*Announcement: Active feed
  - error: Retrieval failures
*/
func (service *Service) ListActive(context context.Context, teamID, userID string) ([]*Announcement, error) {
	return service.repo.ListActiveForUser(context, teamID, userID)
}

/*
MarkRead durably records that a user has seen an announcement.

Description: Idempotent. Marking an already-read announcement is a no-op,
which keeps the client's unread counter stable under repeated taps.

Parameters:
  - context: context.Context
  - announcementID: string
  - userID: string

Returns:
  - error: Not-found or persistence failures
*/
func (service *Service) MarkRead(context context.Context, announcementID, userID string) error {

	// Receipts only attach to announcements that exist.
	if _, err := service.repo.FindByID(context, announcementID); err != nil {
		return err
	}

	return service.repo.UpsertReadReceipt(context, announcementID, userID)
}

/*
PurgeExpired removes announcements past their expiry.

Parameters:
  - context: context.Context

Returns:
  - error: Cleanup failures
*/
func (service *Service) PurgeExpired(context context.Context) error {
	removed, err := service.repo.DeleteExpired(context, time.Now())
	if err != nil {
		return err
	}

	if removed > 0 {
		service.logger.Info("announcements_purged", slog.Int64("count", removed))
	}

	return nil
}
