package years

import (
	"context"

	"github.com/dmitrijs2005/studyportal/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.Year, error)
	Upsert(ctx context.Context, name string) (*models.Year, error)
}
