// Command seed fills the catalogue with the default years and units.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/dmitrijs2005/studyportal/internal/flagx"
	"github.com/dmitrijs2005/studyportal/internal/logging"
	"github.com/dmitrijs2005/studyportal/internal/server/config"
	"github.com/dmitrijs2005/studyportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studyportal/internal/server/services"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	samples := fs.Bool("samples", false, "also create sample resources")
	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-samples"})); err != nil {
		log.Printf("%v", err)
		return
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Error(ctx, "db init error", "error", err)
		return
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		logger.Error(ctx, "migrations error", "error", err)
		return
	}

	if _, err := services.NewSeeder(db, rm, logger).Seed(ctx, *samples); err != nil {
		logger.Error(ctx, "seed failed", "error", err)
		os.Exit(1)
	}
}
