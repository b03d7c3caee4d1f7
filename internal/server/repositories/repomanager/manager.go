package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/studyportal/internal/dbx"
	"github.com/dmitrijs2005/studyportal/internal/server/repositories/resources"
	"github.com/dmitrijs2005/studyportal/internal/server/repositories/units"
	"github.com/dmitrijs2005/studyportal/internal/server/repositories/years"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Resources(db dbx.DBTX) resources.Repository
	Years(db dbx.DBTX) years.Repository
	Units(db dbx.DBTX) units.Repository
}
