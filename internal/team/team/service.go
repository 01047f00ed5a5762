// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package team

import (
	"context"
	"log/slog"

	"github.com/billowria/teampulse/internal/platform/validate"
	"github.com/billowria/teampulse/pkg/slug"
	"github.com/billowria/teampulse/pkg/uuid"
)

// Service orchestrates business rules for workspace teams.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (service *Service) ListTeams(context context.Context) ([]*Team, error) {
	return service.repo.List(context)
}

// GetTeam resolves a team by its UUID or slug identifier.
func (service *Service) GetTeam(context context.Context, identifier string) (*Team, error) {

	// Discriminator: ID vs Slug
	// UUIDs have a fixed length of 36 characters in standard hyphenated format.
	if len(identifier) == 36 {
		return service.repo.FindByID(context, identifier)
	}

	return service.repo.FindBySlug(context, identifier)
}

/*
CreateTeam initialises a new team with a generated slug.

Parameters:
  - context: context.Context
  - name: string
  - creatorID: string

Returns:
  - *Team: Created entity
  - error: Validation or persistence failures
*/
func (service *Service) CreateTeam(context context.Context, name, creatorID string) (*Team, error) {
	validator := &validate.Validator{}
	validator.Required(FieldName, name).MaxLen(FieldName, name, 120)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	team := &Team{
		ID:   uuid.New(),
		Name: name,
		Slug: slug.From(name),
	}

	if err := service.repo.Create(context, team); err != nil {
		return nil, err
	}

	service.logger.Info("team_created",
		slog.String("team_id", team.ID),
		slog.String("creator_id", creatorID),
	)

	return team, nil
}

/*
RenameTeam updates a team's name and regenerates its slug.

Parameters:
  - context: context.Context
  - id: string
  - name: string

Returns:
  - *Team: Updated entity
  - error: Validation, not-found, or persistence failures
*/
func (service *Service) RenameTeam(context context.Context, id, name string) (*Team, error) {
	validator := &validate.Validator{}
	validator.Required(FieldName, name).MaxLen(FieldName, name, 120)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	team, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	team.Name = name
	team.Slug = slug.From(name)

	if err := service.repo.Update(context, team); err != nil {
		return nil, err
	}

	return team, nil
}

func (service *Service) DeleteTeam(context context.Context, id string) error {
	if err := service.repo.Delete(context, id); err != nil {
		return err
	}

	service.logger.Warn("team_deleted", slog.String("team_id", id))
	return nil
}
