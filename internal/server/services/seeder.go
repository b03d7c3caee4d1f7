package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/studyportal/internal/common"
	"github.com/dmitrijs2005/studyportal/internal/dbx"
	"github.com/dmitrijs2005/studyportal/internal/logging"
	"github.com/dmitrijs2005/studyportal/internal/server/models"
	"github.com/dmitrijs2005/studyportal/internal/server/repositories/repomanager"
)

// SeedUnit is a unit created by the seeder in the year named Year.
type SeedUnit struct {
	ID   string
	Name string
	Year string
}

// DefaultYears are created by every seed run.
var DefaultYears = []string{"Year 1", "Year 2", "Year 3"}

// DefaultUnits are created by every seed run.
var DefaultUnits = []SeedUnit{
	{ID: "unit-intro-programming", Name: "Introduction to Programming", Year: "Year 1"},
	{ID: "unit-computer-systems", Name: "Computer Systems", Year: "Year 1"},
	{ID: "unit-data-structures", Name: "Data Structures & Algorithms", Year: "Year 2"},
	{ID: "unit-databases", Name: "Database Systems", Year: "Year 2"},
	{ID: "unit-software-engineering", Name: "Software Engineering", Year: "Year 3"},
}

// SampleResources are created only when samples are requested.
var SampleResources = []models.Resource{
	{
		ID:       "res-intro-notes",
		UnitID:   "unit-intro-programming",
		Title:    "Introduction to Python - Lecture Notes",
		FileURL:  "https://example.com/python-intro.pdf",
		FileType: common.CategoryPDF,
	},
	{
		ID:       "res-python-tutorial",
		UnitID:   "unit-intro-programming",
		Title:    "Python Basics Tutorial",
		FileURL:  "https://www.youtube.com/watch?v=example",
		FileType: common.CategoryYouTube,
	},
}

type SeedResult struct {
	Years     int
	Units     int
	Resources int
}

type Seeder struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewSeeder(db *sql.DB, repomanager repomanager.RepositoryManager, log logging.Logger) *Seeder {
	return &Seeder{db: db, repomanager: repomanager, log: log.With("module", "seeder")}
}

// Seed upserts the default years and units, plus the sample resources when
// withSamples is set, in a single transaction. Running it twice is harmless.
func (s *Seeder) Seed(ctx context.Context, withSamples bool) (*SeedResult, error) {
	res := &SeedResult{}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		yearRepo := s.repomanager.Years(tx)
		unitRepo := s.repomanager.Units(tx)
		resourceRepo := s.repomanager.Resources(tx)

		yearIDs := make(map[string]string, len(DefaultYears))
		for _, name := range DefaultYears {
			y, err := yearRepo.Upsert(ctx, name)
			if err != nil {
				return err
			}
			yearIDs[name] = y.ID
			res.Years++
		}

		for _, u := range DefaultUnits {
			yearID, ok := yearIDs[u.Year]
			if !ok {
				return fmt.Errorf("unit %s: unknown year %q", u.ID, u.Year)
			}
			if err := unitRepo.Upsert(ctx, &models.Unit{ID: u.ID, Name: u.Name, YearID: yearID}); err != nil {
				return err
			}
			res.Units++
		}

		if !withSamples {
			return nil
		}
		for i := range SampleResources {
			r := SampleResources[i]
			if err := resourceRepo.Upsert(ctx, &r); err != nil {
				return err
			}
			res.Resources++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	s.log.Info(ctx, "database seeded", "years", res.Years, "units", res.Units, "resources", res.Resources)
	return res, nil
}
