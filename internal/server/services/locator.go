package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/studyportal/internal/common"
	"github.com/dmitrijs2005/studyportal/internal/logging"
	"github.com/dmitrijs2005/studyportal/internal/server/models"
	"github.com/dmitrijs2005/studyportal/internal/server/repositories/repomanager"
)

// ResourceLocator resolves a download group into the ordered list of
// resources that go into an archive.
type ResourceLocator struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewResourceLocator(db *sql.DB, repomanager repomanager.RepositoryManager, log logging.Logger) *ResourceLocator {
	return &ResourceLocator{
		db:          db,
		repomanager: repomanager,
		log:         log.With("module", "locator"),
	}
}

// Locate returns the downloadable resources of group, or of every unit when
// group is empty. Video links are dropped even if the store returned them.
// An empty result is reported as common.ErrNoDownloadableResources.
func (s *ResourceLocator) Locate(ctx context.Context, group string) ([]models.Resource, error) {
	repo := s.repomanager.Resources(s.db)

	found, err := repo.ListDownloadable(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("locate resources: %w", err)
	}

	items := make([]models.Resource, 0, len(found))
	for _, r := range found {
		if r == nil || !r.Downloadable() {
			continue
		}
		items = append(items, *r)
	}

	if len(items) == 0 {
		return nil, common.ErrNoDownloadableResources
	}

	s.log.Debug(ctx, "resources located", "group", group, "count", len(items), "filtered", len(found)-len(items))
	return items, nil
}
