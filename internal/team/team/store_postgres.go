// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package team

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/billowria/teampulse/internal/platform/apperr"
	"github.com/billowria/teampulse/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (repository *PostgresRepository) List(context context.Context) ([]*Team, error) {
	const query = `
		SELECT id, name, slug, createdat, updatedat
		FROM team.team
		ORDER BY name ASC`

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_team_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var teams []*Team
	for rows.Next() {
		team := &Team{}
		if err := rows.Scan(&team.ID, &team.Name, &team.Slug, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres_team_repo_scan_failed: %w", err)
		}
		teams = append(teams, team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_team_repo_rows_failed: %w", err)
	}

	return teams, nil
}

func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Team, error) {
	const query = `
		SELECT id, name, slug, createdat, updatedat
		FROM team.team
		WHERE id = $1`

	return repository.findOne(context, query, id)
}

func (repository *PostgresRepository) FindBySlug(context context.Context, slug string) (*Team, error) {
	const query = `
		SELECT id, name, slug, createdat, updatedat
		FROM team.team
		WHERE slug = $1`

	return repository.findOne(context, query, slug)
}

func (repository *PostgresRepository) findOne(context context.Context, query, arg string) (*Team, error) {
	team := &Team{}
	err := repository.pool.QueryRow(context, query, arg).Scan(
		&team.ID,
		&team.Name,
		&team.Slug,
		&team.CreatedAt,
		&team.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Team")
		}
		return nil, fmt.Errorf("postgres_team_repo_find_failed: %w", err)
	}

	return team, nil
}

func (repository *PostgresRepository) Create(context context.Context, team *Team) error {
	const query = `
		INSERT INTO team.team (id, name, slug, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5)`

	now := time.Now()
	team.CreatedAt = now
	team.UpdatedAt = now

	_, err := repository.pool.Exec(context, query, team.ID, team.Name, team.Slug, team.CreatedAt, team.UpdatedAt)
	if err != nil {
		// Slug collisions surface as a client-safe conflict.
		return dberr.Wrap(err, "postgres_team_repo_write")
	}

	return nil
}

func (repository *PostgresRepository) Update(context context.Context, team *Team) error {
	const query = `
		UPDATE team.team
		SET name = $2, slug = $3, updatedat = $4
		WHERE id = $1`

	team.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query, team.ID, team.Name, team.Slug, team.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "postgres_team_repo_write")
	}

	return nil
}

func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = "DELETE FROM team.team WHERE id = $1"

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_team_repo_delete_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Team")
	}

	return nil
}
