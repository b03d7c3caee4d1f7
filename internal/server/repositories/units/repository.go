package units

import (
	"context"

	"github.com/dmitrijs2005/studyportal/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.Unit, error)
	Upsert(ctx context.Context, unit *models.Unit) error
}
