package schedule

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateTemplate(ctx context.Context, t Template) (*Template, error)
	ListTemplates(ctx context.Context) ([]Template, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error)
}
