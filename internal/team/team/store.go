// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package team

import "context"

type Repository interface {
	List(context context.Context) ([]*Team, error)
	FindByID(context context.Context, id string) (*Team, error)
	FindBySlug(context context.Context, slug string) (*Team, error)
	Create(context context.Context, team *Team) error
	Update(context context.Context, team *Team) error
	Delete(context context.Context, id string) error
}
