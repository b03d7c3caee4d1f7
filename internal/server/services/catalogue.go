package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/studyportal/internal/dbx"
	"github.com/dmitrijs2005/studyportal/internal/server/models"
	"github.com/dmitrijs2005/studyportal/internal/server/repositories/repomanager"
)

// CatalogueService reports what the database currently holds.
type CatalogueService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCatalogueService(db *sql.DB, repomanager repomanager.RepositoryManager) *CatalogueService {
	return &CatalogueService{db: db, repomanager: repomanager}
}

// Years returns every year with its units attached, read from one snapshot.
func (s *CatalogueService) Years(ctx context.Context) ([]*models.Year, error) {
	var result []*models.Year

	err := dbx.WithReadTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		years, err := s.repomanager.Years(tx).List(ctx)
		if err != nil {
			return err
		}
		units, err := s.repomanager.Units(tx).List(ctx)
		if err != nil {
			return err
		}

		byYear := make(map[string]*models.Year, len(years))
		for _, y := range years {
			y.Units = nil
			byYear[y.ID] = y
		}
		for _, u := range units {
			if y, ok := byYear[u.YearID]; ok {
				y.Units = append(y.Units, *u)
			}
		}

		result = years
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalogue: %w", err)
	}

	return result, nil
}
