package resources

import (
	"context"

	"github.com/dmitrijs2005/studyportal/internal/server/models"
)

type Repository interface {
	// ListDownloadable returns the file resources of unitID, or of every
	// unit when unitID is empty, in a stable order.
	ListDownloadable(ctx context.Context, unitID string) ([]*models.Resource, error)
	Upsert(ctx context.Context, r *models.Resource) error
}
